package streaming

// Config holds configuration for streaming clients.
type Config struct {
	// Provider specifies the backend: "memory", "kinesis", "pubsub", "eventhubs".
	Provider string `env:"STREAMING_PROVIDER" env-default:"memory"`

	// Region is the cloud region.
	Region string `env:"STREAMING_REGION"`

	// BufferSize for batching (optional).
	BufferSize int `env:"STREAMING_BUFFER_SIZE" env-default:"100"`
}

package commander

import (
	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/pkg/validator"
)

// Validator is the validateCommandParams extension point spec.md §9 leaves
// to the deploying adapter. The default implementation below requires only
// that an action is present; a deployment with real business rules can
// supply its own Validator to Commander.
type Validator interface {
	ValidateCommandParams(params domain.CommandParams) error
}

type structTagValidator struct {
	v *validator.Validator
}

// NewStructTagValidator builds the default Validator, backed by
// go-playground/validator struct-tag rules. It is intentionally permissive:
// only CommandParams.Action is required, matching spec.md's "core
// implementation accepts all" baseline while still rejecting the one input
// that would otherwise produce an unroutable, actionless command.
func NewStructTagValidator() Validator {
	return &structTagValidator{v: validator.New()}
}

type validatedParams struct {
	Action string `validate:"required"`
}

func (s *structTagValidator) ValidateCommandParams(params domain.CommandParams) error {
	return s.v.ValidateStruct(validatedParams{Action: params.Action})
}

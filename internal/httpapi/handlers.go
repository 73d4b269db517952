package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/commander"
	"github.com/chris-alexander-pop/commander-core/internal/domain"
	pkgerrors "github.com/chris-alexander-pop/commander-core/pkg/errors"
	"github.com/chris-alexander-pop/commander-core/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	defaultStreamCap = 64
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L().Error("failed to encode response body", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	status := pkgerrors.HTTPStatus(code)
	if code == commander.CodeValidationFailed {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: err.Error()})
}

func parseListParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return offset, limit
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

// handleCreateCommand serves POST /commands. A ?sync=true query parameter
// (with optional ?timeout_ms=N, default 5000) makes the call block for a
// correlated completion event per spec.md §4.5.
func (s *Server) handleCreateCommand(w http.ResponseWriter, r *http.Request) {
	var req createCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidArgument, "malformed request body", err))
		return
	}
	params := domain.CommandParams{Action: req.Action, Data: req.Data}

	if r.URL.Query().Get("sync") != "true" {
		cmd, err := s.commander.CreateCommand(r.Context(), params)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, commandToResponse(cmd))
		return
	}

	timeoutMS := s.defaultSyncTimeoutMS
	if raw := r.URL.Query().Get("timeout_ms"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			timeoutMS = v
		}
	}
	cmd, err := s.commander.CreateCommandSync(r.Context(), params, time.Duration(timeoutMS)*time.Millisecond)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, commandToResponse(cmd))
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	offset, limit := parseListParams(r)
	page, err := s.commander.ListCommands(r.Context(), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandsPageToResponse(page))
}

func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid command id", err))
		return
	}
	cmd, err := s.commander.GetCommandByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if cmd == nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "command not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, commandToResponse(*cmd))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	offset, limit := parseListParams(r)
	page, err := s.commander.ListEvents(r.Context(), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsPageToResponse(page))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid event id", err))
		return
	}
	ev, err := s.commander.GetEventByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if ev == nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "event not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, eventToResponse(*ev))
}

// handleStreamCommands serves GET /commands/stream as newline-delimited
// JSON, one Command object per line, until the client disconnects.
func (s *Server) handleStreamCommands(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, pkgerrors.New(pkgerrors.CodeUnimplemented, "streaming unsupported by this transport", nil))
		return
	}

	ctx := r.Context()
	commands, err := s.commander.StreamCommands(ctx, make(chan domain.Command, defaultStreamCap))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			if err := enc.Encode(commandToResponse(cmd)); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// handleStreamEvents is handleStreamCommands' symmetric counterpart.
func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, pkgerrors.New(pkgerrors.CodeUnimplemented, "streaming unsupported by this transport", nil))
		return
	}

	ctx := r.Context()
	events, err := s.commander.StreamEvents(ctx, make(chan domain.Event, defaultStreamCap))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := enc.Encode(eventToResponse(ev)); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.commander.Health(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats := s.commander.Metrics()
	resp := metricsResponse{
		CommandsSubmitted: stats.CommandsSubmitted,
		SyncCompleted:     stats.SyncCompleted,
		SyncTimeouts:      stats.SyncTimeouts,
		AppendFailures:    stats.AppendFailures,
		ActiveWaiters:     stats.ActiveWaiters,
	}
	if s.replication != nil {
		resp.ReplicationFailure = s.replication.Failures()
	}
	writeJSON(w, http.StatusOK, resp)
}

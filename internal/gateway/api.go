// ABOUTME: HTTP API handlers for submitting turns and reading thread history.
// ABOUTME: Maps dispatch failures to stable status codes without leaking internals.

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2389/switchboard/internal/dispatch"
)

// maxTurnBody bounds the POST /api/turn request body.
const maxTurnBody = 64 << 10

// TurnRequest is the JSON request body for POST /api/turn.
type TurnRequest struct {
	ThreadID  string `json:"thread_id"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// TurnResponse is the JSON response for a committed turn.
type TurnResponse struct {
	ThreadID    string `json:"thread_id"`
	RequestID   string `json:"request_id"`
	Response    string `json:"response"`
	Destination string `json:"destination"`
	Sentiment   string `json:"sentiment"`
	Urgency     string `json:"urgency"`
	Degraded    bool   `json:"degraded,omitempty"`
	Replayed    bool   `json:"replayed,omitempty"`
}

// TurnErrorResponse is the JSON body for a failed turn.
type TurnErrorResponse struct {
	Error string        `json:"error"`
	Code  dispatch.Code `json:"code"`
}

// MessageResponse is one message in a thread history.
type MessageResponse struct {
	Position  int    `json:"position"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// ThreadMessagesResponse is the JSON response for GET /api/threads/{id}/messages.
type ThreadMessagesResponse struct {
	ThreadID    string            `json:"thread_id"`
	Destination string            `json:"destination,omitempty"`
	Messages    []MessageResponse `json:"messages"`
}

// ThreadSummaryResponse is one entry of GET /api/threads.
type ThreadSummaryResponse struct {
	ThreadID        string `json:"thread_id"`
	MessageCount    int    `json:"message_count"`
	LastDestination string `json:"last_destination,omitempty"`
	UpdatedAt       string `json:"updated_at"`
}

// ListThreadsResponse is the JSON response for GET /api/threads.
type ListThreadsResponse struct {
	Threads []ThreadSummaryResponse `json:"threads"`
}

// UsageStatsResponse is the JSON response for GET /api/stats/usage.
type UsageStatsResponse struct {
	TotalInput  int64 `json:"total_input_tokens"`
	TotalOutput int64 `json:"total_output_tokens"`
	TurnCount   int64 `json:"turn_count"`
}

// statusForCode maps a turn failure to its HTTP status.
func statusForCode(code dispatch.Code) int {
	switch code {
	case dispatch.CodeInvalidRequest:
		return http.StatusBadRequest
	case dispatch.CodeClassification:
		return http.StatusBadGateway
	case dispatch.CodePersistence:
		return http.StatusServiceUnavailable
	case dispatch.CodeCancelled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleTurn handles POST /api/turn requests.
func (g *Gateway) handleTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseTurnRequest(http.MaxBytesReader(w, r.Body, maxTurnBody))
	if err != nil {
		g.sendTurnError(w, dispatch.CodeInvalidRequest)
		return
	}

	result, err := g.engine.Turn(r.Context(), dispatch.TurnRequest{
		ThreadID:  req.ThreadID,
		Content:   req.Message,
		RequestID: req.RequestID,
	})
	if err != nil {
		code := dispatch.CodeOf(err)
		if code == dispatch.CodeInvalidRequest || code == dispatch.CodeCancelled {
			g.logger.Info("turn rejected", "code", code, "error", err)
		} else {
			g.logger.Error("turn failed", "code", code, "error", err)
		}
		g.sendTurnError(w, code)
		return
	}

	g.sendJSON(w, http.StatusOK, TurnResponse{
		ThreadID:    result.ThreadID,
		RequestID:   result.RequestID,
		Response:    result.Reply.Content,
		Destination: string(result.Decision.Destination),
		Sentiment:   string(result.Decision.Sentiment),
		Urgency:     string(result.Decision.Urgency),
		Degraded:    result.Degraded,
		Replayed:    result.Replayed,
	})
}

// parseTurnRequest decodes a TurnRequest. Field validation is left to the engine.
func parseTurnRequest(r io.Reader) (*TurnRequest, error) {
	var req TurnRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	return &req, nil
}

// handleListThreads handles GET /api/threads?limit=N.
func (g *Gateway) handleListThreads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit, ok := g.parseLimit(w, r)
	if !ok {
		return
	}

	threads, err := g.engine.Threads(r.Context(), limit)
	if err != nil {
		g.logger.Error("failed to list threads", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := ListThreadsResponse{Threads: make([]ThreadSummaryResponse, len(threads))}
	for i, t := range threads {
		resp.Threads[i] = ThreadSummaryResponse{
			ThreadID:        t.ThreadID,
			MessageCount:    t.MessageCount,
			LastDestination: string(t.LastDestination),
			UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
		}
	}
	g.sendJSON(w, http.StatusOK, resp)
}

// handleThreadMessages handles GET /api/threads/{id}/messages requests.
func (g *Gateway) handleThreadMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Extract thread ID from path: /api/threads/{id}/messages
	path := r.URL.Path
	prefix := "/api/threads/"
	suffix := "/messages"

	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		g.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}

	threadID := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if threadID == "" || strings.Contains(threadID, "/") {
		g.sendJSONError(w, http.StatusBadRequest, "thread_id is required")
		return
	}

	cp, err := g.engine.History(r.Context(), threadID)
	if err != nil {
		g.logger.Error("failed to load thread", "thread_id", threadID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(cp.History) == 0 {
		g.sendJSONError(w, http.StatusNotFound, "thread not found")
		return
	}

	resp := ThreadMessagesResponse{
		ThreadID: threadID,
		Messages: make([]MessageResponse, len(cp.History)),
	}
	if cp.Decision != nil {
		resp.Destination = string(cp.Decision.Destination)
	}
	for i, msg := range cp.History {
		resp.Messages[i] = MessageResponse{
			Position:  msg.Position,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		}
	}
	g.sendJSON(w, http.StatusOK, resp)
}

// handleUsageStats handles GET /api/stats/usage requests.
func (g *Gateway) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if g.usage == nil {
		g.sendJSONError(w, http.StatusNotFound, "usage tracking disabled")
		return
	}

	stats, err := g.usage.GetUsageStats(r.Context())
	if err != nil {
		g.logger.Error("failed to get usage stats", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	g.sendJSON(w, http.StatusOK, UsageStatsResponse{
		TotalInput:  stats.TotalInput,
		TotalOutput: stats.TotalOutput,
		TurnCount:   stats.TurnCount,
	})
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the checkpoint store is reachable.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := g.engine.Ping(r.Context()); err != nil {
		g.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready (up " + time.Since(g.startedAt).Round(time.Second).String() + ")"))
}

// parseLimit reads ?limit=N (default 50, max 1000). It writes the error response itself.
func (g *Gateway) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			g.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return 0, false
		}
		limit = min(parsed, 1000)
	}
	return limit, true
}

// sendTurnError writes the stable failure body for a turn.
func (g *Gateway) sendTurnError(w http.ResponseWriter, code dispatch.Code) {
	g.sendJSON(w, statusForCode(code), TurnErrorResponse{Error: "turn failed", Code: code})
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, map[string]string{"error": message})
}

func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Debug("failed to write response", "error", err)
	}
}

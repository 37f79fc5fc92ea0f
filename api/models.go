// Package api exposes the research engine as a small HTTP service: submit a
// batch of entities, poll it, abort it. Batches run asynchronously; the
// response model is a point-in-time snapshot of the stored batch.
package api

import (
	"strings"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/report"
)

// ============================================================================
// Request DTOs
// ============================================================================

// StartBatchRequest is the request body for POST /api/v1/batches.
type StartBatchRequest struct {
	ID       string   `json:"id,omitempty"`
	Entities []string `json:"entities"`
	Deep     bool     `json:"deep,omitempty"`
}

// EntityIDs normalizes the requested entities: whitespace trimmed, blanks
// dropped, duplicates removed keeping first occurrence.
func (r *StartBatchRequest) EntityIDs() []contracts.EntityID {
	seen := make(map[string]struct{}, len(r.Entities))
	out := make([]contracts.EntityID, 0, len(r.Entities))
	for _, raw := range r.Entities {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, contracts.EntityID(name))
	}
	return out
}

// ============================================================================
// Response DTOs
// ============================================================================

// BatchResponse is the response body for batch-related endpoints. Summary is
// present only once the batch has finished.
type BatchResponse struct {
	ID        string             `json:"id"`
	State     string             `json:"state"`
	Deep      bool               `json:"deep,omitempty"`
	Entities  []string           `json:"entities"`
	Summary   *report.SummaryDTO `json:"summary,omitempty"`
	Error     *ErrorDTO          `json:"error,omitempty"`
	CreatedAt int64              `json:"created_at"`
	UpdatedAt int64              `json:"updated_at,omitempty"`
}

// ErrorDTO represents an error in the response.
type ErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ============================================================================
// Converters: store snapshot → Response DTO
// ============================================================================

// SnapshotToResponse converts a BatchSnapshot to BatchResponse.
func SnapshotToResponse(snap *BatchSnapshot) *BatchResponse {
	resp := &BatchResponse{
		ID:        string(snap.ID),
		State:     snap.APIState,
		Deep:      snap.Deep,
		Entities:  make([]string, len(snap.Entities)),
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}
	for i, entity := range snap.Entities {
		resp.Entities[i] = string(entity)
	}

	if snap.Summary != nil {
		resp.Summary = report.BuildSummary(snap.Summary, snap.Records)
	}

	if snap.Err != nil {
		httpErr := MapError(snap.Err)
		resp.Error = &ErrorDTO{
			Code:    string(httpErr.Code),
			Message: snap.Err.Error(),
		}
	}

	return resp
}

package report

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// ============================================================================
// Summary DTOs
// ============================================================================

// SummaryDTO is the wire shape of summary.json.
type SummaryDTO struct {
	BatchID        string         `json:"batch_id"`
	StartedAt      string         `json:"started_at"`
	Entities       int            `json:"entities"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	TotalCostUSD   float64        `json:"total_cost_usd"`
	WallDurationMs int64          `json:"wall_duration_ms"`
	CacheHitRate   float64        `json:"cache_hit_rate"`
	FailureKinds   map[string]int `json:"failure_kinds,omitempty"`
	Records        []RecordDTO    `json:"records"`
}

// RecordDTO is one entity's sealed outcome in summary.json.
type RecordDTO struct {
	Entity       string  `json:"entity"`
	RunID        string  `json:"run_id,omitempty"`
	Status       string  `json:"status"`
	FailureKind  string  `json:"failure_kind,omitempty"`
	FailureMsg   string  `json:"failure_message,omitempty"`
	QualityScore float64 `json:"quality_score"`
	Iterations   int     `json:"iterations"`
	CostUSD      float64 `json:"cost_usd"`
	DurationMs   int64   `json:"duration_ms"`
	CacheHit     bool    `json:"cache_hit"`
	ReportPath   string  `json:"report_path,omitempty"`
}

// ============================================================================
// Converters: contracts → DTO
// ============================================================================

// BuildSummary converts a batch outcome into its wire shape.
func BuildSummary(summary *contracts.Summary, records []contracts.BatchRecord) *SummaryDTO {
	dto := &SummaryDTO{
		BatchID:        string(summary.BatchID),
		StartedAt:      summary.StartedAt.UTC().Format(time.RFC3339),
		Entities:       summary.Entities,
		Succeeded:      summary.Succeeded,
		Failed:         summary.Failed,
		TotalCostUSD:   summary.TotalCostUSD,
		WallDurationMs: summary.WallDuration.Milliseconds(),
		CacheHitRate:   summary.CacheHitRate,
		Records:        make([]RecordDTO, 0, len(records)),
	}
	if len(summary.FailureKinds) > 0 {
		dto.FailureKinds = make(map[string]int, len(summary.FailureKinds))
		for kind, n := range summary.FailureKinds {
			dto.FailureKinds[string(kind)] = n
		}
	}
	for _, rec := range records {
		dto.Records = append(dto.Records, recordToDTO(rec))
	}
	return dto
}

func recordToDTO(rec contracts.BatchRecord) RecordDTO {
	status := "ok"
	if !rec.Success {
		status = "failed"
	}
	return RecordDTO{
		Entity:       string(rec.Entity),
		RunID:        string(rec.RunID),
		Status:       status,
		FailureKind:  string(rec.FailureKind),
		FailureMsg:   rec.FailureMsg,
		QualityScore: rec.QualityScore,
		Iterations:   rec.Iterations,
		CostUSD:      rec.CostUSD,
		DurationMs:   rec.Duration.Milliseconds(),
		CacheHit:     rec.CacheHit,
		ReportPath:   rec.ReportPath,
	}
}

// WriteSummaryJSON writes the summary to path as indented JSON.
func WriteSummaryJSON(path string, dto *SummaryDTO) error {
	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal summary")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrap(err, "report: write summary")
	}
	return nil
}

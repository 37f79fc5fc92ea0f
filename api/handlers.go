package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/batch"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/report"
)

// maxRequestBodySize limits the size of incoming request bodies (1MB).
// Requests carry entity name lists, nothing bulky.
const maxRequestBodySize = 1 << 20

// batchRetention controls how long finished batches are kept in memory.
const batchRetention = time.Hour

// BatchFunc runs one research batch to completion and returns the sealed
// records and summary. The server owns scheduling and cancellation; the
// function owns everything between.
type BatchFunc func(ctx context.Context, entities []contracts.EntityID, deep bool) ([]contracts.BatchRecord, *contracts.Summary, error)

// Handlers contains the HTTP handler methods for the API.
type Handlers struct {
	store     *BatchStore
	run       BatchFunc
	reportDir string // directory for finished batch reports (empty = disabled)
	log       *zap.Logger
}

// NewHandlers creates a new Handlers instance.
// reportDir specifies the directory for batch report files (empty = disabled).
func NewHandlers(store *BatchStore, run BatchFunc, reportDir string, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.L()
	}
	return &Handlers{
		store:     store,
		run:       run,
		reportDir: reportDir,
		log:       log,
	}
}

// HandleStartBatch handles POST /api/v1/batches.
func (h *Handlers) HandleStartBatch(w http.ResponseWriter, r *http.Request) {
	// Parse request body with size limit to prevent memory exhaustion
	limitedReader := io.LimitReader(r.Body, maxRequestBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		WriteError(w, eris.Wrap(contracts.ErrInvalidInput, "api: read request body"))
		return
	}
	if len(body) > maxRequestBodySize {
		WriteError(w, eris.Wrapf(contracts.ErrInvalidInput, "api: request body too large (max %d bytes)", maxRequestBodySize))
		return
	}

	var req StartBatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, eris.Wrap(contracts.ErrInvalidInput, "api: invalid JSON"))
		return
	}

	entities := req.EntityIDs()
	if len(entities) == 0 {
		WriteError(w, eris.Wrap(contracts.ErrNoEntities, "api: at least one entity is required"))
		return
	}

	// Generate batch ID if not provided
	batchID := contracts.BatchID(req.ID)
	if batchID == "" {
		batchID = contracts.BatchID(uuid.NewString())
	}

	// Create cancellable context for the batch
	ctx, cancel := context.WithCancel(context.Background())

	if err := h.store.Create(batchID, entities, req.Deep, cancel); err != nil {
		cancel() // clean up context
		WriteError(w, err)
		return
	}

	// Best-effort cleanup of old finished batches
	h.store.PruneCompleted(batchRetention)

	h.log.Info("api: batch accepted",
		zap.String("batch_id", string(batchID)),
		zap.Int("entities", len(entities)),
		zap.Bool("deep", req.Deep),
	)

	// Run the batch in the background
	go h.runBatch(ctx, batchID, entities, req.Deep)

	snap, _ := h.store.Snapshot(batchID)
	resp := SnapshotToResponse(snap)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, resp)
}

// HandleGetBatch handles GET /api/v1/batches/{id}.
func (h *Handlers) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, eris.Wrap(contracts.ErrInvalidInput, "api: missing batch ID"))
		return
	}

	snap, exists := h.store.Snapshot(contracts.BatchID(id))
	if !exists {
		WriteError(w, eris.Wrapf(ErrBatchNotFound, "batch %s", id))
		return
	}

	resp := SnapshotToResponse(snap)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// HandleAbortBatch handles POST /api/v1/batches/{id}/abort.
func (h *Handlers) HandleAbortBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, eris.Wrap(contracts.ErrInvalidInput, "api: missing batch ID"))
		return
	}

	if err := h.store.Abort(contracts.BatchID(id)); err != nil {
		WriteError(w, err)
		return
	}

	snap, exists := h.store.Snapshot(contracts.BatchID(id))
	if !exists {
		WriteError(w, eris.Wrapf(ErrBatchNotFound, "batch %s", id))
		return
	}

	resp := SnapshotToResponse(snap)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// runBatch drives one batch in a goroutine and seals the result in the
// store. Reports are written before Complete so the stored records already
// carry their report paths and nothing mutates them after publication.
func (h *Handlers) runBatch(ctx context.Context, id contracts.BatchID, entities []contracts.EntityID, deep bool) {
	run := h.run
	if run == nil {
		run = defaultBatchFunc
	}

	records, summary, err := run(ctx, entities, deep)
	if summary != nil {
		// The runner mints its own internal ID; clients know the one they
		// were given, so that one wins.
		summary.BatchID = id
	}

	if h.reportDir != "" && err == nil {
		h.writeReports(id, records, summary)
	}

	h.store.Complete(id, records, summary, err)

	if err != nil {
		h.log.Warn("api: batch failed", zap.String("batch_id", string(id)), zap.Error(err))
		return
	}
	h.log.Info("api: batch finished",
		zap.String("batch_id", string(id)),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Float64("total_cost_usd", summary.TotalCostUSD),
	)
}

// writeReports renders the finished batch under reportDir/<batch-id>/:
// one markdown report per entity, summary.json and comparison.md.
func (h *Handlers) writeReports(id contracts.BatchID, records []contracts.BatchRecord, summary *contracts.Summary) {
	dir := filepath.Join(h.reportDir, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.log.Warn("api: create report dir", zap.String("batch_id", string(id)), zap.Error(err))
		return
	}

	for i := range records {
		path, err := report.WriteEntity(dir, &records[i])
		if err != nil {
			h.log.Warn("api: write entity report",
				zap.String("entity", string(records[i].Entity)),
				zap.Error(err),
			)
			continue
		}
		records[i].ReportPath = path
	}

	dto := report.BuildSummary(summary, records)
	if err := report.WriteSummaryJSON(filepath.Join(dir, "summary.json"), dto); err != nil {
		h.log.Warn("api: write summary", zap.String("batch_id", string(id)), zap.Error(err))
	}

	table, err := batch.Compare(records, nil)
	if err != nil {
		h.log.Warn("api: build comparison", zap.String("batch_id", string(id)), zap.Error(err))
		return
	}
	if err := report.WriteComparison(filepath.Join(dir, "comparison.md"), table); err != nil {
		h.log.Warn("api: write comparison", zap.String("batch_id", string(id)), zap.Error(err))
	}
}

// defaultBatchFunc is a fallback BatchFunc when none is provided. It seals
// one successful zero-cost record per entity.
func defaultBatchFunc(ctx context.Context, entities []contracts.EntityID, deep bool) ([]contracts.BatchRecord, *contracts.Summary, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	records := make([]contracts.BatchRecord, len(entities))
	for i, entity := range entities {
		records[i] = contracts.BatchRecord{Entity: entity, Success: true}
	}
	summary := &contracts.Summary{
		Entities:     len(records),
		Succeeded:    len(records),
		FailureKinds: map[contracts.FailureKind]int{},
		StartedAt:    time.Now(),
	}
	return records, summary, nil
}

// writeJSON writes a JSON response. Encoding failures at this point cannot
// be reported to the client anymore.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		_ = err
	}
}

package batch

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// DefaultFields is the comparison column set callers get when they do not
// ask for specific fields.
var DefaultFields = []string{"status", "quality_score", "iterations", "cost_usd", "duration_ms", "cache_hit"}

type fieldFormatter func(contracts.BatchRecord) string

var fieldFormatters = map[string]fieldFormatter{
	"status": func(r contracts.BatchRecord) string {
		if r.Success {
			return "ok"
		}
		if r.FailureKind == contracts.FailureNone {
			return "failed"
		}
		return string(r.FailureKind)
	},
	"quality_score": func(r contracts.BatchRecord) string {
		return strconv.FormatFloat(r.QualityScore, 'f', 1, 64)
	},
	"iterations": func(r contracts.BatchRecord) string {
		return strconv.Itoa(r.Iterations)
	},
	"cost_usd": func(r contracts.BatchRecord) string {
		return strconv.FormatFloat(r.CostUSD, 'f', 4, 64)
	},
	"duration_ms": func(r contracts.BatchRecord) string {
		return strconv.FormatInt(r.Duration.Milliseconds(), 10)
	},
	"cache_hit": func(r contracts.BatchRecord) string {
		return strconv.FormatBool(r.CacheHit)
	},
}

// Compare pivots sealed records into one row per entity, in record order,
// with one column per requested field. Pure: no I/O, no clock, no mutation
// of the records.
func Compare(records []contracts.BatchRecord, fields []string) (*contracts.ComparisonTable, error) {
	if len(records) == 0 {
		return nil, eris.Wrap(contracts.ErrNoEntities, "batch: compare")
	}
	if len(fields) == 0 {
		fields = DefaultFields
	}
	for _, f := range fields {
		if fieldFormatters[f] == nil {
			return nil, fmt.Errorf("batch: compare field %q: %w", f, contracts.ErrUnknownField)
		}
	}

	table := &contracts.ComparisonTable{
		Fields: append([]string(nil), fields...),
		Rows:   make([]contracts.ComparisonRow, 0, len(records)),
	}
	for _, rec := range records {
		row := contracts.ComparisonRow{
			Entity: rec.Entity,
			Values: make([]string, len(fields)),
		}
		for i, f := range fields {
			row.Values[i] = fieldFormatters[f](rec)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

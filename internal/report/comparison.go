package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// RenderComparison renders the batch pivot as a Markdown table, one row per
// entity in table order.
func RenderComparison(table *contracts.ComparisonTable) string {
	if table == nil || len(table.Rows) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("| entity |")
	for _, f := range table.Fields {
		fmt.Fprintf(&b, " %s |", f)
	}
	b.WriteString("\n|---|")
	for range table.Fields {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for _, row := range table.Rows {
		fmt.Fprintf(&b, "| %s |", row.Entity)
		for _, v := range row.Values {
			fmt.Fprintf(&b, " %s |", v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteComparison writes the rendered pivot to path.
func WriteComparison(path string, table *contracts.ComparisonTable) error {
	if err := os.WriteFile(path, []byte(RenderComparison(table)), 0o644); err != nil {
		return eris.Wrap(err, "report: write comparison")
	}
	return nil
}

// Slug turns an entity name into a safe file stem: lowercase, runs of
// non-alphanumerics collapsed to single dashes.
func Slug(entity contracts.EntityID) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(string(entity)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// WriteEntity renders one record to dir/<slug>.md and returns the path.
func WriteEntity(dir string, rec *contracts.BatchRecord) (string, error) {
	stem := Slug(rec.Entity)
	if stem == "" {
		stem = "entity"
	}
	path := filepath.Join(dir, stem+".md")
	if err := os.WriteFile(path, []byte(RenderEntity(rec)), 0o644); err != nil {
		return "", eris.Wrapf(err, "report: write entity %s", rec.Entity)
	}
	return path, nil
}

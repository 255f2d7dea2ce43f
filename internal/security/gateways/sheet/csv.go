package sheet

import (
	"encoding/csv"
	"strings"

	logpkg "github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/domain"
)

// ParseBlockList turns the CSV export of the block list into entries.
//
// Behavior:
// - The body is split on '\n' and each line is parsed on its own, so quoted
//   fields may contain commas but not newlines
// - No header row is assumed
// - A line must yield at least two fields; the first two are trimmed and
//   become username and domain, extra columns are ignored
// - Blank and unparseable lines are skipped
func ParseBlockList(body string, logger logpkg.Logger) domain.BlockList {
	lines := strings.Split(body, "\n")
	out := make(domain.BlockList, 0, len(lines))
	for i, line := range lines {
		if i == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		fields, ok := parseLine(line)
		if !ok {
			logger.Debug(map[string]any{"line": i + 1}, "skip_unparseable")
			continue
		}
		if len(fields) < 2 {
			logger.Debug(map[string]any{"line": i + 1, "fields": len(fields)}, "skip_short_row")
			continue
		}
		out = append(out, domain.NewBlockEntry(fields[0], fields[1]))
	}
	return out
}

// parseLine reads a single CSV record. Quote handling is lenient to match
// what spreadsheet exports actually produce.
func parseLine(line string) ([]string, bool) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rec, err := r.Read()
	if err != nil {
		return nil, false
	}
	return rec, true
}

package meets

import (
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"watch-me-run-api/internal/model"
)

// dateLayout accepts 11/20/25, 1/5/26 etc.
const dateLayout = "1/2/06"

// ParseCSV parses the meets table. The first non-empty line must be a header
// containing Date, Name, Level and Priority (case-insensitive, any order);
// "Live Results" (or "LiveResults") and "Watch" are optional. Malformed rows
// are skipped, malformed input yields an empty slice. Never returns an error.
func ParseCSV(data []byte) []model.Meet {
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(strings.TrimSuffix(l, "\r")) != "" {
			lines = append(lines, strings.TrimSuffix(l, "\r"))
		}
	}
	if len(lines) == 0 {
		return nil
	}

	headers := splitLine(lines[0])
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	index := func(name string) int {
		for i, h := range headers {
			if strings.EqualFold(h, name) {
				return i
			}
		}
		return -1
	}

	dateIdx := index("Date")
	nameIdx := index("Name")
	levelIdx := index("Level")
	prioIdx := index("Priority")
	if dateIdx < 0 || nameIdx < 0 || levelIdx < 0 || prioIdx < 0 {
		log.Printf("meets: csv missing required headers (Date, Name, Level, Priority)")
		return nil
	}
	liveIdx := index("Live Results")
	if liveIdx < 0 {
		liveIdx = index("LiveResults")
	}
	watchIdx := index("Watch")

	var out []model.Meet
	for _, line := range lines[1:] {
		cols := splitLine(line)
		if len(cols) < len(headers) {
			continue
		}

		dateStr := strings.TrimSpace(cols[dateIdx])
		date, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
		if err != nil {
			log.Printf("meets: skipping row, bad date %q", dateStr)
			continue
		}

		prio, err := strconv.Atoi(strings.TrimSpace(cols[prioIdx]))
		if err != nil || prio < 1 || prio > 3 {
			prio = 2
		}

		out = append(out, model.Meet{
			ID:             uuid.New().String(),
			Date:           date,
			Name:           strings.TrimSpace(cols[nameIdx]),
			Level:          strings.TrimSpace(cols[levelIdx]),
			Priority:       prio,
			LiveResultsURL: optionalURL(cols, liveIdx),
			WatchURL:       optionalURL(cols, watchIdx),
		})
	}

	// Priority 1 → 3, ties alphabetical ignoring case.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// splitLine is the source data's simplified quoting rule: any double-quote
// toggles in-quotes mode (commas inside are literal) and the quote characters
// themselves are dropped. Not RFC 4180: "" does not escape.
func splitLine(line string) []string {
	var (
		result   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			result = append(result, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(result, current.String())
}

// optionalURL maps empty or unparseable strings to "", never an error.
func optionalURL(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	s := strings.TrimSpace(cols[idx])
	if s == "" {
		return ""
	}
	if _, err := url.Parse(s); err != nil {
		return ""
	}
	return s
}

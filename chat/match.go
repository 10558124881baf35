package chat

import (
	"log/slog"
	"strings"
)

// ParseKeywords splits a comma-separated keyword expression. Surrounding
// whitespace is trimmed and empty entries dropped; order and duplicates are
// kept.
func ParseKeywords(expr string) []string {
	out := []string{}
	for _, k := range strings.Split(expr, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Match returns every record that contains a keyword in its display name or
// text. Matching is case-sensitive. A record is appended once per keyword it
// satisfies, so the result may hold the same record several times; the
// exporter collapses those.
func Match(records []CommentRecord, keywords []string) []CommentRecord {
	out := make([]CommentRecord, 0)
	for _, r := range records {
		for _, k := range keywords {
			if strings.Contains(r.AuthorDisplayName, k) || strings.Contains(r.Text, k) {
				out = append(out, r)
			}
		}
	}
	return out
}

// LogMatches writes one line per match, offset relative to windowStart.
func LogMatches(logger *slog.Logger, matches []CommentRecord, windowStart float64) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range matches {
		logger.Info("["+FormatClock(m.OffsetSeconds-windowStart)+"]"+m.AuthorDisplayName+":"+m.Text,
			slog.String("component", "keyword_match"),
			slog.String("comment_id", m.ID))
	}
}

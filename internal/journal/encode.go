// Package journal implements the append-only sample journal: line encoding,
// parsing and validation, atomic rotation, and the durable writer.
package journal

import (
	"strconv"
	"strings"
	"time"
)

// TimeFormat is the human-readable timestamp stamped on encoded lines.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// EncodeLine renders one journal line: "<ts> <prefix><name> <value>\n".
// An empty timestamp stamps the current UTC time. Neither name nor value is
// validated here; the parser rejects malformed lines on the way out.
func EncodeLine(prefix, name string, value float64, timestamp string) string {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(TimeFormat)
	}
	var sb strings.Builder
	sb.Grow(len(timestamp) + len(prefix) + len(name) + 24)
	sb.WriteString(timestamp)
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(name)
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	sb.WriteByte('\n')
	return sb.String()
}

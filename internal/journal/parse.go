package journal

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/ports"
)

// DefaultStaleAfter is the freshness window applied when a Parser does not
// override it: samples older than two hours are rejected as stale.
const DefaultStaleAfter = 2 * time.Hour

// Parser turns raw journal contents into validated samples. Lines that fail
// validation go verbatim to Rejects when one is installed, otherwise they are
// silently dropped.
type Parser struct {
	Instance   string
	StaleAfter time.Duration
	Rejects    ports.RejectSink
}

// Parse splits raw contents on newlines and validates each non-empty line.
// A line is valid iff it has exactly 3 space-delimited fields, its timestamp
// normalizes to a value newer than now minus the stale window, and its value
// field parses to a finite number. Output order matches input order, for
// valid records and rejected lines alike.
func (p Parser) Parse(raw string) []domain.Sample {
	stale := p.StaleAfter
	if stale <= 0 {
		stale = DefaultStaleAfter
	}
	now := time.Now()
	oldest := now.Unix() - int64(stale/time.Second)

	var out []domain.Sample
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, " ")
		if len(fields) != 3 {
			p.reject(line)
			continue
		}
		ts := NormalizeTimestamp(fields[0], now)
		if ts <= oldest {
			p.reject(line)
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			p.reject(line)
			continue
		}
		// The finiteness check above ran on the parsed value; only now is
		// negative zero folded into plain zero for the stored record.
		if v == 0 {
			v = 0
		}
		out = append(out, domain.Sample{
			Name:        fields[1],
			Value:       v,
			CollectedAt: ts,
			Instance:    p.Instance,
		})
	}
	return out
}

func (p Parser) reject(line string) {
	if p.Rejects != nil {
		p.Rejects.Append(line)
	}
}

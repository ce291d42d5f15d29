// Package influx uploads journal captures to an InfluxDB 2.x bucket.
package influx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/andrasq/kstats/internal/journal"
	"github.com/andrasq/kstats/internal/ports"
)

// Configuration errors, surfaced synchronously from New and never retried.
var (
	ErrNoURL    = errors.New("influx: url required")
	ErrNoToken  = errors.New("influx: token required")
	ErrNoBucket = errors.New("influx: org and bucket required")
)

// Config describes one InfluxDB 2.x endpoint.
type Config struct {
	URL        string
	Token      string
	Org        string
	Bucket     string
	Instance   string
	StaleAfter time.Duration
	Rejects    ports.RejectSink
}

// Client implements ports.Uploader by writing each valid sample as a point.
// Writes go through the blocking API: the upload must be confirmed before
// the orchestrator deletes the capture file, so batched async writes are not
// an option here.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	parser   journal.Parser
}

var _ ports.Uploader = (*Client)(nil)

// New validates the configuration and builds a token-authenticated client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNoURL
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrNoToken
	}
	if strings.TrimSpace(cfg.Org) == "" || strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrNoBucket
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Client{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		parser: journal.Parser{
			Instance:   cfg.Instance,
			StaleAfter: cfg.StaleAfter,
			Rejects:    cfg.Rejects,
		},
	}, nil
}

// Upload parses the capture contents and writes one point per valid sample.
func (c *Client) Upload(ctx context.Context, contents []byte) error {
	samples := c.parser.Parse(string(contents))
	if len(samples) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(samples))
	for _, s := range samples {
		tags := map[string]string{}
		if s.Instance != "" {
			tags["instance"] = s.Instance
		}
		points = append(points, write.NewPoint(
			s.Name,
			tags,
			map[string]any{"value": s.Value},
			time.Unix(s.CollectedAt, 0),
		))
	}
	if err := c.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

// Close releases the underlying HTTP client.
func (c *Client) Close() {
	c.client.Close()
}

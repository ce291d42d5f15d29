// Package gateway uploads journal captures to a remote metrics gateway as
// gzipped JSON batches.
package gateway

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/journal"
	"github.com/andrasq/kstats/internal/misc"
	"github.com/andrasq/kstats/internal/ports"
)

// Configuration errors, surfaced synchronously from New and never retried.
var (
	ErrNoAPIKey = errors.New("gateway: api key required")
	ErrNoURL    = errors.New("gateway: url required")
)

const uploadPath = "/v1/custom"

// Config describes one gateway endpoint.
type Config struct {
	URL        string
	APIKey     string
	SignKey    string
	Instance   string
	StaleAfter time.Duration
	Rejects    ports.RejectSink
	HTTPClient *http.Client
}

// Client implements ports.Uploader against the gateway wire protocol.
type Client struct {
	cfg    Config
	base   *url.URL
	hc     *http.Client
	parser journal.Parser
}

var _ ports.Uploader = (*Client)(nil)

var (
	gzipWriterPool = sync.Pool{
		New: func() any {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = sync.Pool{
		New: func() any {
			return new(bytes.Buffer)
		},
	}
)

// New validates the configuration and returns a ready Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNoURL
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	u, err := url.Parse(normalizeBase(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("gateway url: %w", err)
	}
	return &Client{
		cfg:  cfg,
		base: u,
		hc:   hc,
		parser: journal.Parser{
			Instance:   cfg.Instance,
			StaleAfter: cfg.StaleAfter,
			Rejects:    cfg.Rejects,
		},
	}, nil
}

func normalizeBase(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/")
	}
	return "http://" + strings.TrimRight(s, "/")
}

func (c *Client) endpoint() string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + uploadPath
	return u.String()
}

// Upload parses the capture contents and posts the valid samples in one
// batch. Zero valid records succeed trivially without a network call, so a
// capture full of stale lines still gets cleaned up.
func (c *Client) Upload(ctx context.Context, contents []byte) error {
	samples := c.parser.Parse(string(contents))
	if len(samples) == 0 {
		return nil
	}
	batch := domain.Batch{
		Timestamp:    time.Now().Unix(),
		ProtoVersion: domain.ProtoVersion,
		Data:         samples,
	}
	return c.doGzJSON(ctx, batch)
}

func (c *Client) doGzJSON(ctx context.Context, payload any) (retErr error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	var hashHeader string
	if key := strings.TrimSpace(c.cfg.SignKey); key != "" {
		hashHeader = misc.SumSHA256(plain, key)
	}

	gzPayload, err := gzipBytes(plain)
	if err != nil {
		return err
	}
	defer gzPayload.Release()
	gzBody := gzPayload.Bytes()

	resp, err := c.sendWithRetry(ctx, func() (*http.Request, error) {
		return c.newUploadRequest(ctx, gzBody, hashHeader)
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()

	return checkHTTPStatus(resp)
}

type httpStatusError struct {
	code int
	body string
}

func (e *httpStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("gateway status %d", e.code)
	}
	return fmt.Sprintf("gateway status %d: %s", e.code, e.body)
}

func isRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}
	var se *httpStatusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusBadGateway, http.StatusServiceUnavailable,
			http.StatusGatewayTimeout, http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

type compressedPayload struct {
	buf *bytes.Buffer
}

func (p *compressedPayload) Bytes() []byte {
	if p == nil || p.buf == nil {
		return nil
	}
	return p.buf.Bytes()
}

func (p *compressedPayload) Release() {
	if p == nil || p.buf == nil {
		return
	}
	p.buf.Reset()
	bufferPool.Put(p.buf)
	p.buf = nil
}

func gzipBytes(src []byte) (*compressedPayload, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	zw := gzipWriterPool.Get().(*gzip.Writer)
	zw.Reset(buf)
	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		gzipWriterPool.Put(zw)
		buf.Reset()
		bufferPool.Put(buf)
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		gzipWriterPool.Put(zw)
		buf.Reset()
		bufferPool.Put(buf)
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	gzipWriterPool.Put(zw)
	return &compressedPayload{buf: buf}, nil
}

func (c *Client) newUploadRequest(ctx context.Context, body []byte, hashHeader string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	if hashHeader != "" {
		req.Header.Set("HashSHA256", hashHeader)
	}
	return req, nil
}

func (c *Client) sendWithRetry(ctx context.Context, mkReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	op := func() error {
		req, err := mkReq()
		if err != nil {
			return err
		}
		if resp != nil {
			// Drop the transient-failure response before retrying.
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		r, err := c.hc.Do(req)
		if err != nil {
			resp = nil
			return err
		}
		resp = r
		if resp.StatusCode >= 300 && isRetryableStatus(resp.StatusCode) {
			return &httpStatusError{code: resp.StatusCode}
		}
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryableHTTP, op); err != nil {
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		return nil, fmt.Errorf("http do: %w", err)
	}
	return resp, nil
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable,
		http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// checkHTTPStatus treats any status >= 300 as an upload error and carries
// the response body along as diagnostic payload for the operator.
func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		_, err := io.Copy(io.Discard, resp.Body)
		if err != nil {
			return fmt.Errorf("drain body: %w", err)
		}
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &httpStatusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
}

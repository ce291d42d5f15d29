package influx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no_url", Config{Token: "t", Org: "o", Bucket: "b"}, ErrNoURL},
		{"no_token", Config{URL: "http://x", Org: "o", Bucket: "b"}, ErrNoToken},
		{"no_org", Config{URL: "http://x", Token: "t", Bucket: "b"}, ErrNoBucket},
		{"no_bucket", Config{URL: "http://x", Token: "t", Org: "o"}, ErrNoBucket},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}
}

func TestUpload_WritesLineProtocol(t *testing.T) {
	var mu sync.Mutex
	var body string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v2/write") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(b)
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, Token: "tok", Org: "o", Bucket: "b", Instance: "host-1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	line := fmt.Sprintf("%d cpu.busy 42.5\n", time.Now().Unix())
	if err := c.Upload(context.Background(), []byte(line)); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if auth != "Token tok" {
		t.Fatalf("auth header=%q", auth)
	}
	if !strings.Contains(body, "cpu.busy") || !strings.Contains(body, "instance=host-1") || !strings.Contains(body, "value=42.5") {
		t.Fatalf("line protocol=%q", body)
	}
}

func TestUpload_EmptyBatchSkipsWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("write issued for empty batch")
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, Token: "t", Org: "o", Bucket: "b"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Upload(context.Background(), []byte("1 stale 1\n")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestUpload_ServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"bad token"}`)
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, Token: "t", Org: "o", Bucket: "b"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	line := fmt.Sprintf("%d a 1\n", time.Now().Unix())
	if err := c.Upload(context.Background(), []byte(line)); err == nil {
		t.Fatal("expected write error")
	}
}

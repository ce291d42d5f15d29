package journal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andrasq/kstats/internal/misc"
)

// Writer is the durable append-only line sink feeding a journal. Every append
// opens the file fresh with O_APPEND, so a rotation between writes can never
// redirect an already-open descriptor into the capture file.
type Writer struct {
	path   string
	prefix string
	mu     sync.Mutex
}

// Option configures a Writer at Open time.
type Option func(*Writer)

// WithPrefix prepends the given prefix to every logged sample name.
func WithPrefix(prefix string) Option {
	return func(w *Writer) { w.prefix = prefix }
}

var linePool = misc.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) })

// Open prepares a journal writer for the given path. The file is touched
// immediately so permission problems surface at startup, not on first sample.
func Open(path string, opts ...Option) (*Writer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path required")
	}
	w := &Writer{path: path}
	for _, opt := range opts {
		opt(w)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close journal: %w", err)
	}
	return w, nil
}

// Log appends one sample stamped with the current UTC time.
func (w *Writer) Log(name string, value float64) error {
	return w.logAt(name, value, time.Now().UTC().Format(TimeFormat))
}

// LogAt appends one sample stamped with the provided time.
func (w *Writer) LogAt(name string, value float64, t time.Time) error {
	return w.logAt(name, value, t.UTC().Format(TimeFormat))
}

// WriteLine appends a pre-encoded line, adding the trailing newline when the
// caller left it off.
func (w *Writer) WriteLine(line string) error {
	if line == "" {
		return nil
	}
	buf := linePool.Get()
	defer linePool.Put(buf)
	buf.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		buf.WriteByte('\n')
	}
	return w.append(buf.Bytes())
}

func (w *Writer) logAt(name string, value float64, ts string) error {
	buf := linePool.Get()
	defer linePool.Put(buf)
	buf.WriteString(ts)
	buf.WriteByte(' ')
	buf.WriteString(w.prefix)
	buf.WriteString(name)
	buf.WriteByte(' ')
	buf.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	buf.WriteByte('\n')
	return w.append(buf.Bytes())
}

func (w *Writer) append(line []byte) (retErr error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close journal: %w", cerr)
		}
	}()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

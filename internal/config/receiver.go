package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andrasq/kstats/internal/misc"
)

const (
	defaultListenAndServeAddr = ":8080"
	defaultSnapshotPath       = "samples-db.json"
	defaultIntakePath         = ""
	defaultStoreInterval      = 300
	defaultRestore            = false
)

// ReceiverConfig configures the kstats-gateway HTTP receiver.
type ReceiverConfig struct {
	Address    string
	File       string
	IntakeFile string
	Key        string
	Interval   time.Duration
	Restore    bool
}

// LoadReceiverConfig resolves configuration as CLI > ENV > defaults.
func LoadReceiverConfig(args []string, out io.Writer) (ReceiverConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("kstats-gateway", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt string
	var fileOpt string
	var intakeOpt string
	var keyOpt string
	var ivalOpt int
	var restoreOpt bool

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("HTTP listen address, default: %s", defaultListenAndServeAddr))
	fs.StringVar(&fileOpt, "f", "", fmt.Sprintf("FILE_STORAGE_PATH for snapshots, default: %s", defaultSnapshotPath))
	fs.StringVar(&intakeOpt, "e", "", "INTAKE_FILE for the upload event log, default: disabled")
	fs.StringVar(&keyOpt, "k", "", "KEY shared secret for HashSHA256 body verification")
	fs.IntVar(&ivalOpt, "i", -1, fmt.Sprintf("STORE_INTERVAL seconds (0 - sync), default: %d", defaultStoreInterval))
	fs.BoolVar(&restoreOpt, "r", false, fmt.Sprintf("RESTORE snapshot on start (true/false), default: %t", defaultRestore))

	if err := fs.Parse(args); err != nil {
		return ReceiverConfig{}, err
	}

	addr := addrOpt
	if strings.TrimSpace(addr) == "" {
		addr = misc.Getenv("ADDRESS", defaultListenAndServeAddr)
	}
	addr = normalizeListenAndServeURL(addr)

	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return ReceiverConfig{}, fmt.Errorf("invalid listen address: %q", addr)
	}
	// SplitHostPort accepts any non-empty port string; only numeric ports
	// are usable for ListenAndServe.
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return ReceiverConfig{}, fmt.Errorf("invalid listen port: %q", addr)
	}

	file := FromEnvOrFlag("FILE_STORAGE_PATH", fileOpt, defaultSnapshotPath)
	intake := FromEnvOrFlag("INTAKE_FILE", intakeOpt, defaultIntakePath)
	key := FromEnvOrFlag("KEY", keyOpt, "")

	interval, _ := FromEnvOrFlagDuration("STORE_INTERVAL", ivalOpt, -1, defaultStoreInterval)

	restore := FromEnvOrFlagBool("RESTORE", restoreOpt, defaultRestore)

	return ReceiverConfig{
		Address:    addr,
		File:       file,
		IntakeFile: intake,
		Key:        key,
		Interval:   interval,
		Restore:    restore,
	}, nil
}

func normalizeListenAndServeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultListenAndServeAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}

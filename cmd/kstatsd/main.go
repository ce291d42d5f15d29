package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/andrasq/kstats/internal/adapters/collector/system"
	"github.com/andrasq/kstats/internal/config"
	"github.com/andrasq/kstats/internal/journal"
	"github.com/andrasq/kstats/internal/ports"
	"github.com/andrasq/kstats/internal/services/uploader"
	"github.com/andrasq/kstats/pkg/util"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	util.PrintBuildInfo(buildVersion, buildDate, buildCommit)

	cfgPath := flag.String("config", "kstatsd.yaml", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.LoadDaemonConfig(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rejects := &journal.Rejects{}
	up, closeBackend, err := buildUploader(ctx, cfg, rejects)
	if err != nil {
		log.Fatalf("failed to init backend: %v", err)
	}
	defer closeBackend()

	w, err := journal.Open(cfg.Journal.Path, journal.WithPrefix(cfg.Journal.Prefix))
	if err != nil {
		log.Fatalf("failed to open journal: %v", err)
	}

	svc := uploader.New(cfg.Journal.Path, up)
	loop := uploader.NewLoop(svc, cfg.Upload.Interval.Std(),
		func(err error, msg string) { log.Printf("%s: %v", msg, err) },
		rejects)

	var wg sync.WaitGroup
	if cfg.Collector.Enabled {
		col := system.New()
		if err := col.Start(ctx, cfg.Collector.PollInterval.Std()); err != nil {
			log.Fatalf("failed to start collector: %v", err)
		}
		defer col.Stop()

		wg.Add(1)
		go func() {
			defer wg.Done()
			reportLoop(ctx, w, col, cfg.Collector.ReportInterval.Std())
		}()
	}

	log.Printf("kstatsd started: journal=%s backend=%s upload=%v collector=%t",
		cfg.Journal.Path, cfg.Backend.Kind, cfg.Upload.Interval.Std(), cfg.Collector.Enabled)

	loop.Run(ctx)
	wg.Wait()
}

// reportLoop periodically dumps the collector's gauges into the journal.
// Rotation between writes is safe because the journal writer reopens the
// file for every append.
func reportLoop(ctx context.Context, w *journal.Writer, col ports.Collector, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, value := range col.Snapshot() {
				if err := w.Log(name, value); err != nil {
					log.Printf("journal write failed: %v", err)
				}
			}
		}
	}
}

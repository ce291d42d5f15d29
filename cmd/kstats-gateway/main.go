package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/andrasq/kstats/internal/adapters/http/ginserver"
	"github.com/andrasq/kstats/internal/adapters/http/ginserver/middlewares"
	intakefile "github.com/andrasq/kstats/internal/adapters/intake/file"
	persistfile "github.com/andrasq/kstats/internal/adapters/persistence/file"
	"github.com/andrasq/kstats/internal/adapters/repository/memory"
	"github.com/andrasq/kstats/internal/config"
	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/services/ingest"
	"github.com/andrasq/kstats/internal/services/intake"
	"github.com/andrasq/kstats/pkg/util"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	util.PrintBuildInfo(buildVersion, buildDate, buildCommit)

	cfg, err := config.LoadReceiverConfig(os.Args[1:], nil)
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	repo := memory.New()

	var persister *persistfile.Persister
	if cfg.File != "" {
		persister = persistfile.New(cfg.File)
		if cfg.Restore {
			if err := persister.Restore(context.Background(), repo); err != nil {
				logger.Warn("restore failed", zap.Error(err))
			}
		}
	}

	// Interval 0 means save synchronously on every accepted upload.
	var onStored func(context.Context, []domain.Sample)
	if persister != nil && cfg.Interval == 0 {
		onStored = func(ctx context.Context, items []domain.Sample) {
			if err := persister.Save(ctx, items); err != nil {
				logger.Warn("save failed", zap.Error(err))
			}
		}
	}

	var events intake.Publisher
	if cfg.IntakeFile != "" {
		events = intake.NewSubject(intakefile.New(cfg.IntakeFile))
	}

	svc := ingest.New(repo, events, onStored)
	h := ginserver.NewHandler(svc)

	// GzipRequest must run before the hash check so the signature is
	// verified against the decompressed body.
	r := ginserver.NewRouter(h,
		middlewares.ZapLogger(logger),
		middlewares.GzipRequest(),
		middlewares.GzipResponse(),
		middlewares.VerifyHashSHA256(cfg.Key),
	)

	log.Printf("cfg: addr=%s file=%s intake=%s interval=%v restore=%v",
		cfg.Address, cfg.File, cfg.IntakeFile, cfg.Interval, cfg.Restore)

	if persister != nil && cfg.Interval > 0 {
		ticker := time.NewTicker(cfg.Interval)
		go func() {
			for range ticker.C {
				if items, err := repo.List(context.Background()); err == nil {
					if err := persister.Save(context.Background(), items); err != nil {
						logger.Warn("periodic save failed", zap.Error(err))
					}
				}
			}
		}()
	}

	if err := http.ListenAndServe(cfg.Address, r); err != nil {
		log.Fatal(err)
	}
}

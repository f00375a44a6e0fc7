// Command certsend announces a batch of issued certificates. It reads a
// YAML manifest of certificates, dispatches each one through the delivery
// ledger, and enqueues the resulting emails for the notification daemon's
// worker to send. Re-running with the same manifest is safe: the ledger
// deduplicates, so only holders missed by a previous run are reached.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/eventkit/pkg/batch"
	"github.com/dmitrymomot/eventkit/pkg/config"
	"github.com/dmitrymomot/eventkit/pkg/dispatch"
	"github.com/dmitrymomot/eventkit/pkg/ledger"
	"github.com/dmitrymomot/eventkit/pkg/logger"
	"github.com/dmitrymomot/eventkit/pkg/mailqueue"
	"github.com/dmitrymomot/eventkit/pkg/pg"
)

type manifest struct {
	Certificates []manifestEntry `yaml:"certificates"`
}

type manifestEntry struct {
	CertificateID  string `yaml:"certificate_id"`
	CertificateURL string `yaml:"certificate_url"`
	EventName      string `yaml:"event_name"`
	UserID         string `yaml:"user_id"`
	Name           string `yaml:"name"`
	Email          string `yaml:"email"`
	Phone          string `yaml:"phone"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(logger.WithConfig(logCfg))

	if err := run(ctx, log); err != nil {
		log.Error("certificate batch failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		file        = flag.String("file", "", "path to the certificate manifest (YAML)")
		concurrency = flag.Int("concurrency", 8, "how many certificates to dispatch at once")
	)
	flag.Parse()
	if *file == "" {
		return fmt.Errorf("missing -file flag")
	}

	issues, err := loadManifest(*file)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return fmt.Errorf("manifest %s lists no certificates", *file)
	}

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	enqueuer, err := mailqueue.NewEnqueuer(mailqueue.NewPGStorage(pool))
	if err != nil {
		return err
	}
	dispatcher, err := dispatch.NewDispatcher(ledger.NewPGLedger(pool), enqueuer, dispatch.WithLogger(log))
	if err != nil {
		return err
	}
	runner, err := batch.NewRunner(batch.NewMemoryRunStore(),
		batch.WithConcurrency(*concurrency),
		batch.WithLogger(log),
	)
	if err != nil {
		return err
	}

	result, err := batch.DispatchCertificates(ctx, runner, dispatcher, issues)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "certificate batch finished",
		slog.String("run_id", result.ID.String()),
		slog.String("status", string(result.Status)),
		slog.Int("total", result.Total),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
	)
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d certificates failed, rerun with the same manifest to retry", result.Failed, result.Total)
	}
	return nil
}

func loadManifest(path string) ([]batch.CertificateIssue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	issues := make([]batch.CertificateIssue, 0, len(m.Certificates))
	for _, e := range m.Certificates {
		userID := uuid.Nil
		if e.UserID != "" {
			if userID, err = uuid.Parse(e.UserID); err != nil {
				return nil, fmt.Errorf("certificate %s: invalid user id %q", e.CertificateID, e.UserID)
			}
		}
		issues = append(issues, batch.CertificateIssue{
			CertificateID:  e.CertificateID,
			CertificateURL: e.CertificateURL,
			EventName:      e.EventName,
			Recipient: dispatch.Recipient{
				UserID: userID,
				Name:   e.Name,
				Email:  e.Email,
				Phone:  e.Phone,
			},
		})
	}
	return issues, nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/eventkit/pkg/channel"
	"github.com/dmitrymomot/eventkit/pkg/config"
	"github.com/dmitrymomot/eventkit/pkg/dispatch"
	"github.com/dmitrymomot/eventkit/pkg/email"
	"github.com/dmitrymomot/eventkit/pkg/events"
	"github.com/dmitrymomot/eventkit/pkg/feed"
	"github.com/dmitrymomot/eventkit/pkg/httpapi"
	"github.com/dmitrymomot/eventkit/pkg/httpserver"
	"github.com/dmitrymomot/eventkit/pkg/ledger"
	"github.com/dmitrymomot/eventkit/pkg/logger"
	"github.com/dmitrymomot/eventkit/pkg/mailqueue"
	"github.com/dmitrymomot/eventkit/pkg/metrics"
	"github.com/dmitrymomot/eventkit/pkg/pg"
	"github.com/dmitrymomot/eventkit/pkg/push"
	"github.com/dmitrymomot/eventkit/pkg/redis"
	"github.com/dmitrymomot/eventkit/pkg/reservation"
	"github.com/dmitrymomot/eventkit/pkg/sweep"
)

type appConfig struct {
	Addr           string   `env:"HTTP_ADDR" envDefault:":8080"`
	CallbackSecret string   `env:"CALLBACK_SECRET,required"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaTopic     string   `env:"KAFKA_TOPIC" envDefault:"ticketing.events"`
	KafkaGroup     string   `env:"KAFKA_GROUP" envDefault:"notification-service"`
	DirectoryURL   string   `env:"DIRECTORY_URL"`
	DevEmailDir    string   `env:"DEV_EMAIL_DIR" envDefault:"./outbox"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(logger.WithConfig(logCfg))
	logger.SetAsDefault(log)

	if err := run(ctx, log); err != nil {
		log.Error("notification service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		cfg        appConfig
		pgCfg      pg.Config
		redisCfg   redis.Config
		emailCfg   email.Config
		channelCfg channel.Config
	)
	config.MustLoad(&cfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&channelCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	m := metrics.New()
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	// Persistence.
	reservations := reservation.NewPGStore(pool)
	deliveryLog := ledger.NewPGLedger(pool)
	tokens := push.NewPGTokenStore(pool)
	jobStorage := mailqueue.NewPGStorage(pool)
	feedStorage, err := feed.NewRedisStorage(rdb)
	if err != nil {
		return err
	}

	// Outbound email.
	var sender email.EmailSender
	if emailCfg.PostmarkServerToken != "" {
		if sender, err = email.NewPostmarkClient(emailCfg); err != nil {
			return err
		}
	} else {
		log.Warn("postmark token not set, writing emails to disk", slog.String("dir", cfg.DevEmailDir))
		sender = email.NewDevSender(cfg.DevEmailDir)
	}

	enqueuer, err := mailqueue.NewEnqueuer(jobStorage)
	if err != nil {
		return err
	}
	worker, err := mailqueue.NewWorker(jobStorage, mailqueue.WithWorkerLogger(log))
	if err != nil {
		return err
	}
	worker.RegisterHandlers(mailqueue.DefaultHandlers(sender)...)

	// In-app feed with live streaming.
	stream := feed.NewStreamDeliverer()
	defer stream.Close()
	feedManager, err := feed.NewManager(feedStorage, stream, feed.WithManagerLogger(log))
	if err != nil {
		return err
	}

	// Push fanout. Real provider credentials are wired here; the log
	// provider keeps development environments observable.
	logProvider := push.NewLogProvider(log)
	fanout, err := push.NewFanout(tokens, deliveryLog, map[push.ProviderName]push.Provider{
		push.ProviderFCM:     logProvider,
		push.ProviderAPNS:    logProvider,
		push.ProviderWebPush: logProvider,
	}, push.WithFanoutLogger(log))
	if err != nil {
		return err
	}
	registry, err := push.NewRegistry(tokens)
	if err != nil {
		return err
	}

	// SMS and WhatsApp stay behind the channel feature flags; the log
	// gateway is swapped for a provider transport when a channel goes live.
	gateway := logGateway{logger: log}
	smsAdapter, err := channel.NewSMSAdapter(gateway, channelCfg)
	if err != nil {
		return err
	}
	waAdapter, err := channel.NewWhatsAppAdapter(gateway, channelCfg)
	if err != nil {
		return err
	}

	dispatcher, err := dispatch.NewDispatcher(deliveryLog, enqueuer,
		dispatch.WithFeed(feedManager),
		dispatch.WithPush(fanout),
		dispatch.WithSMS(smsAdapter),
		dispatch.WithWhatsApp(waAdapter),
		dispatch.WithMetrics(m),
		dispatch.WithLogger(log),
	)
	if err != nil {
		return err
	}

	// Background sweeps.
	scheduler := sweep.NewScheduler(sweep.WithLogger(log), sweep.WithMetrics(m))
	jobs := sweep.Jobs{
		Store:      reservations,
		Dispatcher: dispatcher,
		Feed:       feedStorage,
		Logger:     log,
		Metrics:    m,
	}
	if cfg.DirectoryURL != "" {
		directory := newDirectoryClient(cfg.DirectoryURL)
		jobs.Directory = directory
		jobs.Events = directory
	} else {
		log.Warn("directory url not set, expiry and reminder sweeps disabled")
	}
	if err := jobs.Register(scheduler); err != nil {
		return err
	}

	bridge, err := events.NewBridge(dispatcher, reservations, events.WithBridgeLogger(log))
	if err != nil {
		return err
	}
	consumer, err := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, bridge,
		events.WithConsumerLogger(log))
	if err != nil {
		return err
	}

	api, err := httpapi.New(deliveryLog, registry, feedManager, cfg.CallbackSecret, httpapi.WithLogger(log))
	if err != nil {
		return err
	}
	router := api.Router()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", httpserver.HealthCheckHandler(ctx, log, pg.Healthcheck(pool), redis.Healthcheck(rdb)))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		worker.Stop()
		return nil
	})
	g.Go(func() error { return consumer.Start(ctx) })
	g.Go(func() error {
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		scheduler.Stop()
		return nil
	})
	g.Go(func() error {
		srv := httpserver.New(httpserver.WithAddr(cfg.Addr), httpserver.WithLogger(log))
		return srv.Run(ctx, router)
	})

	log.InfoContext(ctx, "notification service started", slog.String("addr", cfg.Addr))
	return g.Wait()
}

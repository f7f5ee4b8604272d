package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	eligibilityconsumer "github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/consumer"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/handler"
	eligibilitymetrics "github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/metrics"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/service"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/evaluation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/outbox"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/refdata"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/platform/config"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/platform/httpserver"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/platform/kafka/consumer"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/platform/logger"
	platformmetrics "github.com/loloatlo/railrepay-eligibility-engine/internal/platform/metrics"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/platform/postgres"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/platform/redis"
	httptransport "github.com/loloatlo/railrepay-eligibility-engine/internal/transport/http"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/circuit"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("eligibility engine stopped", "error", err)
		os.Exit(1)
	}
}

// infra holds the process-wide resources run needs to close on exit.
type infra struct {
	db    *sql.DB
	redis *redis.Client
}

func (i *infra) close() {
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.DefaultRegisterer
	eligibilityMetrics := eligibilitymetrics.NewWithRegisterer(reg)
	httpMetrics := platformmetrics.NewWithRegisterer(reg)

	dataset, err := loadDataset(cfg.Eligibility.RefdataFile)
	if err != nil {
		return err
	}

	res := &infra{}
	defer res.close()

	svc, checks, err := buildService(ctx, cfg, log, eligibilityMetrics, dataset, res)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        httpMetrics,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   checks,
	}, handler.New(svc, log))
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting eligibility engine", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		delayConsumer, err := consumer.New(consumer.Config{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topics:  []string{cfg.Kafka.DelayTopic},
		}, eligibilityconsumer.NewDelayHandler(svc, log, eligibilityMetrics), consumer.WithLogger(log))
		if err != nil {
			return err
		}
		defer delayConsumer.Close()
		if err := consumer.EnsureTopics(ctx, delayConsumer.Client(), 3, 1, cfg.Kafka.DelayTopic); err != nil {
			log.Warn("could not ensure kafka topic", "topic", cfg.Kafka.DelayTopic, "error", err)
		}
		g.Go(func() error {
			log.Info("consuming delay confirmations", "topic", cfg.Kafka.DelayTopic, "group", cfg.Kafka.GroupID)
			return delayConsumer.Run(gctx)
		})
	}

	return g.Wait()
}

func loadDataset(path string) (*refdata.Dataset, error) {
	if path == "" {
		return refdata.DefaultDataset(), nil
	}
	ds, err := refdata.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load reference data %s: %w", path, err)
	}
	return ds, nil
}

// buildService picks Postgres-backed stores when DATABASE_URL is set and
// in-memory stores otherwise. Redis, when configured, fronts reference data.
func buildService(ctx context.Context, cfg config.Config, log *slog.Logger, m *eligibilitymetrics.Metrics, ds *refdata.Dataset, res *infra) (*service.Service, map[string]httptransport.HealthCheck, error) {
	checks := map[string]httptransport.HealthCheck{}
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
	}

	if cfg.Postgres.URL == "" {
		log.Warn("DATABASE_URL not set; evaluations are kept in memory")
		evals := evaluation.NewInMemory()
		events := outbox.NewInMemory()
		ref := refdata.NewInMemory(ds)
		tx := service.NewInMemoryTx(evals, events, cfg.Eligibility.TxTimeout)
		return service.New(evals, ref, tx, opts...), checks, nil
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	res.db = db
	checks["postgres"] = db.PingContext

	if cfg.Postgres.MigrateOnStart {
		if err := postgres.Migrate(db); err != nil {
			return nil, nil, err
		}
	}

	pgRefdata := refdata.NewPostgres(db)
	if err := pgRefdata.Apply(ctx, ds); err != nil {
		return nil, nil, fmt.Errorf("seed reference data: %w", err)
	}

	var ref service.ReferenceData = pgRefdata
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable; reading reference data from postgres", "error", err)
	} else if client != nil {
		res.redis = client
		checks["redis"] = client.Health
		ref = refdata.NewCached(pgRefdata, client.Client,
			refdata.WithTTL(cfg.Eligibility.RefdataCacheTTL),
			refdata.WithBreaker(circuit.New("refdata-redis")),
			refdata.WithCacheLogger(log),
			refdata.WithCacheMetrics(m),
		)
	}

	evals := evaluation.NewPostgres(db)
	tx := newEligibilityPostgresTx(db, service.TxStores{
		Evaluations: evals,
		Outbox:      outbox.NewPostgres(db),
	}, cfg.Eligibility.TxTimeout)
	return service.New(evals, ref, tx, opts...), checks, nil
}

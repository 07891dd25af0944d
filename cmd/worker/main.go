// worker ejecuta los procesos en segundo plano: job diario de snapshots, purga de
// retención y consumo de la cola de notificaciones. Expone /health y /metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger-api/internal/application/snapshot"
	"github.com/jhoicas/stockledger-api/internal/bootstrap"
	"github.com/jhoicas/stockledger-api/internal/domain/event"
	"github.com/jhoicas/stockledger-api/internal/interfaces/health"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("timezone", cfg.App.Location().String()).
		Msg("iniciando worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer storage.Close()

	caches, err := bootstrap.OpenCache(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("caché")
	}
	defer caches.Close()

	svc := bootstrap.NewServices(cfg, storage, caches, log)
	defer svc.Close()

	loc := cfg.App.Location()
	jobs := cron.New(cron.WithLocation(loc))
	if _, err := jobs.AddFunc(cfg.Snapshot.Cron, func() { runDaily(ctx, svc.Snapshots, loc, log) }); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.Snapshot.Cron).Msg("programar job de snapshots")
	}
	if _, err := jobs.AddFunc(cfg.Snapshot.PurgeCron, func() { purge(ctx, svc.Snapshots, loc, log) }); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.Snapshot.PurgeCron).Msg("programar purga de snapshots")
	}
	jobs.Start()

	srv := health.New(cfg.HTTP.MetricsAddr(), svc.Metrics.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.AMQP.URL != "" {
		consumer, err := bootstrap.NewConsumer(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("consumidor de notificaciones")
		}
		defer func() { _ = consumer.Close() }()
		g.Go(func() error {
			return consumer.Run(gctx, func(ctx context.Context, body []byte) error {
				e, err := event.Decode(body)
				if err != nil {
					return err
				}
				return svc.Notify.Handle(ctx, e)
			})
		})
	} else {
		log.Info().Msg("sin AMQP_URL: el worker no consume notificaciones")
	}

	log.Info().
		Str("snapshot_cron", cfg.Snapshot.Cron).
		Str("purge_cron", cfg.Snapshot.PurgeCron).
		Str("metrics_addr", cfg.HTTP.MetricsAddr()).
		Msg("worker en marcha")

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("worker finalizado con error")
	}

	log.Info().Msg("señal de apagado recibida, esperando jobs en curso...")
	<-jobs.Stop().Done()
	log.Info().Msg("worker detenido")
}

func runDaily(ctx context.Context, agg *snapshot.Aggregator, loc *time.Location, log *logger.Logger) {
	report, err := agg.RunDaily(ctx, time.Now().In(loc))
	if err != nil {
		if errors.Is(err, snapshot.ErrAlreadyRunning) {
			log.Info().Msg("job de snapshots ya en curso en otra instancia")
			return
		}
		log.Error().Err(err).Msg("job de snapshots")
		return
	}
	log.Info().
		Time("date", report.Date).
		Int("companies", report.Companies).
		Int("processed", report.Processed).
		Int("succeeded", report.Succeeded).
		Bool("partial", report.Partial()).
		Dur("duration", report.Duration).
		Msg("job de snapshots completado")
}

func purge(ctx context.Context, agg *snapshot.Aggregator, loc *time.Location, log *logger.Logger) {
	n, err := agg.PurgeExpired(ctx, time.Now().In(loc))
	if err != nil {
		log.Error().Err(err).Msg("purga de snapshots")
		return
	}
	log.Info().Int64("deleted", n).Msg("purga de snapshots completada")
}

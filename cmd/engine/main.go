// Command engine wires the DharmaGuard detection engine together with its
// surrounding adapters: config, logging, metrics, the Kafka trade source,
// the Postgres alert store, and the admin API, following the construction
// order this codebase's own service entrypoints use — config first, then
// logging, then the domain engine, then its collaborators, then a blocking
// signal-handled run loop.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bhanukaranwal/DharmaGuard/internal/adapters/kafkaingest"
	"github.com/bhanukaranwal/DharmaGuard/internal/adapters/pgalertstore"
	"github.com/bhanukaranwal/DharmaGuard/internal/api"
	"github.com/bhanukaranwal/DharmaGuard/internal/config"
	"github.com/bhanukaranwal/DharmaGuard/internal/detectors"
	"github.com/bhanukaranwal/DharmaGuard/internal/metrics"
	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
	"github.com/bhanukaranwal/DharmaGuard/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the surveillance config file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	adminAddr := flag.String("admin-addr", ":8080", "admin API listen address")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres DSN for the alert store (optional)")
	redisAddr := flag.String("redis-addr", "", "Redis address for the quote cache (optional)")
	kafkaBrokers := flag.String("kafka-brokers", "", "comma-separated Kafka brokers for the trade source (optional)")
	kafkaTopic := flag.String("kafka-topic", "trades", "Kafka topic to consume trades from")
	flag.Parse()

	log, err := logger.New(*logLevel, "engine")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfgManager := config.NewManager(log)
	if err := cfgManager.Load(*configPath); err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	surveillanceCfg := cfgManager.Surveillance()

	metrics.InitMetrics()

	eng := surveillance.NewEngine(surveillance.EngineConfig{
		NumWorkers: surveillanceCfg.NumThreads,
		QueueSize:  surveillanceCfg.QueueSize,
		PoolSize:   surveillanceCfg.QueueSize,
		Logger:     log,
	})

	registerBuiltinDetectors(eng, cfgManager, log)

	if err := eng.Initialize(); err != nil {
		log.Fatal("failed to initialize engine", zap.Error(err))
	}

	adminServer := api.New(eng, log)

	sinks := []surveillance.AlertSink{&loggingSink{logger: log}, adminServer}
	if *postgresDSN != "" {
		if store, err := pgalertstore.Connect(context.Background(), *postgresDSN); err != nil {
			log.Warn("failed to connect to postgres alert store", zap.Error(err))
		} else {
			defer store.Close()
			sinks = append(sinks, store)
		}
	}
	eng.SetAlertSink(surveillance.NewFanoutSink(sinks...))

	if *redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer rdb.Close()
		log.Info("connected quote cache", zap.String("addr", *redisAddr))
	}

	if err := eng.Start(); err != nil {
		log.Fatal("failed to start engine", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var kafkaSource *kafkaingest.Source
	if *kafkaBrokers != "" {
		kafkaSource = kafkaingest.New(kafkaingest.Config{
			Brokers: splitCSV(*kafkaBrokers),
			Topic:   *kafkaTopic,
			GroupID: "dharmaguard-engine",
		}, eng, log)
		go func() {
			if err := kafkaSource.Run(ctx); err != nil {
				log.Error("kafka source stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := adminServer.Run(*adminAddr); err != nil {
			log.Error("admin API stopped", zap.Error(err))
		}
	}()

	go metricsLoop(ctx, eng)

	waitForShutdown(log)

	cancel()
	if kafkaSource != nil {
		_ = kafkaSource.Close()
	}
	if err := eng.Stop(); err != nil {
		log.Error("engine failed to stop cleanly", zap.Error(err))
	}
}

func registerBuiltinDetectors(eng *surveillance.Engine, cfgManager *config.Manager, log *zap.Logger) {
	builtins := map[string]surveillance.Detector{
		"pump_dump":       detectors.NewPumpDumpDetector(),
		"layering":        detectors.NewLayeringDetector(),
		"wash_trading":    detectors.NewWashTradingDetector(),
		"insider_trading": detectors.NewInsiderTradingDetector(),
		"front_running":   detectors.NewFrontRunningDetector(),
	}
	for name, detector := range builtins {
		eng.RegisterDetector(name, detector)
		if cfg := cfgManager.PatternConfig(name); len(cfg) > 0 {
			detector.UpdateConfig(cfg)
		}
		log.Debug("registered built-in detector", zap.String("pattern", name))
	}
}

func metricsLoop(ctx context.Context, eng *surveillance.Engine) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.Observe(eng.GetStatistics())
		}
	}
}

func waitForShutdown(log *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received shutdown signal", zap.String("signal", sig.String()))
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// loggingSink is the always-present fallback sink that simply logs every
// dispatched alert; useful during local development before Postgres is
// wired up, matching the teacher's "log-only" placeholder database sink.
type loggingSink struct {
	logger *zap.Logger
}

func (l *loggingSink) Send(alert surveillance.Alert) error {
	l.logger.Info("alert generated",
		zap.String("pattern", alert.PatternName),
		zap.String("severity", alert.Severity.String()),
		zap.String("confidence", alert.Confidence.String()),
		zap.String("trade_id", alert.Trade.TradeID),
	)
	return nil
}

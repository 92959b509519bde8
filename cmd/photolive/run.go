package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/photolive/internal/api"
	"github.com/nerrad567/photolive/internal/bridges/mqttbridge"
	"github.com/nerrad567/photolive/internal/infrastructure/config"
	"github.com/nerrad567/photolive/internal/infrastructure/database"
	"github.com/nerrad567/photolive/internal/infrastructure/influxdb"
	"github.com/nerrad567/photolive/internal/infrastructure/logging"
	"github.com/nerrad567/photolive/internal/infrastructure/mqtt"
	"github.com/nerrad567/photolive/internal/journal"
	"github.com/nerrad567/photolive/internal/process"
	"github.com/nerrad567/photolive/internal/supervisor"
	"github.com/nerrad567/photolive/internal/webapp"
	"github.com/nerrad567/photolive/migrations"
)

// samplerInterval is how often the web server state is written to InfluxDB.
const samplerInterval = time.Minute

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the host and supervise the web server until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Cancel on Ctrl+C or SIGTERM for graceful shutdown
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			path, optional := opts.resolveConfigPath()
			return run(ctx, path, optional)
		},
	}
}

// run is the host lifecycle, separated from the command for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context, configPath string, optional bool) error {
	log := logging.Default()
	log.Info("starting PhotoLive host",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath, optional)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	sup, err := newSupervisor(cfg, log)
	if err != nil {
		return err
	}

	health := make(map[string]api.HealthChecker)

	// Journal (optional)
	var journalRepo journal.Repository
	if cfg.Database.Enabled {
		db, err := openJournal(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("journal database ready", "path", cfg.Database.Path)

		journalRepo = journal.NewSQLiteRepository(db.DB)
		sup.AddObserver(journal.NewRecorder(journalRepo, log).Observe)
		health["database"] = db
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	// fail stops and joins the goroutines already in g, so they are gone
	// before the deferred sink closes run.
	fail := func(err error) error {
		cancelRun()
		_ = g.Wait()
		return err
	}

	// InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fail(fmt.Errorf("connecting to InfluxDB: %w", err))
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		influxClient.SetServerName(supervisor.DefaultName)
		sup.AddObserver(influxClient.Observe)
		health["influxdb"] = influxClient

		g.Go(func() error {
			influxClient.RunSampler(gctx, samplerInterval, sup.Stats)
			return nil
		})
	}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fail(fmt.Errorf("connecting to MQTT: %w", err))
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// #nosec G115 -- qos validated to 0..2 by config
		bridge := mqttbridge.New(mqttClient, sup, byte(cfg.MQTT.QoS), log)
		sup.AddObserver(bridge.Observe)
		if err := bridge.Start(gctx); err != nil {
			return fail(fmt.Errorf("starting MQTT bridge: %w", err))
		}
		health["mqtt"] = mqttClient

		g.Go(func() error {
			bridge.Wait()
			return nil
		})
	}

	// Host API
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Logger:     log,
			Supervisor: sup,
			Journal:    journalRepo,
			Health:     health,
			Version:    version,
		}
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}

		apiServer, err := api.New(deps)
		if err != nil {
			return fail(fmt.Errorf("creating API server: %w", err))
		}
		sup.AddObserver(apiServer.Hub().Observe)

		if err := apiServer.Start(gctx); err != nil {
			return fail(fmt.Errorf("starting API server: %w", err))
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	// Registered last so the web server stops before any sink closes.
	defer func() {
		log.Info("stopping web server")
		sup.Stop()
	}()

	if cfg.Host.AutoStart {
		g.Go(func() error {
			// A failed start leaves the host up and degraded; the API and
			// MQTT commands can retry.
			if err := sup.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("web server failed to start", "error", err)
			}
			return nil
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// newSupervisor builds the supervisor and its collaborators from config.
func newSupervisor(cfg *config.Config, log *logging.Logger) (*supervisor.Supervisor, error) {
	layout, err := webapp.NewLayout(cfg.WebApp.Root, cfg.WebApp.Manifest, cfg.WebApp.DependencyDir)
	if err != nil {
		return nil, fmt.Errorf("resolving web app: %w", err)
	}

	entry, err := layout.Entry(cfg.WebApp.Entry)
	if err != nil {
		// Start reports the missing environment; keep the host up.
		log.Warn("cannot read web app manifest, using default entry",
			"error", err,
			"entry", supervisor.DefaultEntry,
		)
		entry = supervisor.DefaultEntry
	}

	provisioner := webapp.NewCommandProvisioner(cfg.WebApp.Install.Command, cfg.WebApp.Install.Args)
	provisioner.SetLogger(log)

	launcher := process.NewLauncher()
	launcher.SetLogger(log)

	sup, err := supervisor.New(supervisor.Config{
		Ports:             supervisor.PortRange{Base: cfg.Server.BasePort, Count: cfg.Server.PortCount},
		PortEnv:           cfg.Server.PortEnv,
		Args:              []string{entry},
		ExtraEnv:          childEnv(cfg),
		ObservationWindow: cfg.Server.ObservationWindow,
		StopTimeout:       cfg.Server.StopTimeout,
		LeaseDir:          cfg.Server.LeaseDir,
		CaptureOutput:     cfg.Server.CaptureOutput,
	}, supervisor.Deps{
		Environment: layout,
		Provisioner: provisioner,
		Runtime:     webapp.NewLocator(cfg.Runtime.Path, cfg.Runtime.Candidates, cfg.Runtime.Fallback),
		Launcher:    supervisor.ProcessLauncher(launcher),
	})
	if err != nil {
		return nil, fmt.Errorf("creating supervisor: %w", err)
	}
	sup.SetLogger(log.With("component", "supervisor"))

	log.Info("supervisor ready",
		"web_app", layout.Root(),
		"entry", entry,
		"ports", sup.PortRange().String(),
	)

	return sup, nil
}

// childEnv maps host settings onto the web app's environment. Explicit
// server.env entries win over the derived ones.
func childEnv(cfg *config.Config) map[string]string {
	env := make(map[string]string)
	if cfg.Host.PhotosPath != "" {
		env["PHOTOS_PATH"] = cfg.Host.PhotosPath
	}
	if cfg.Host.Language != "" {
		env["LANGUAGE"] = cfg.Host.Language
	}
	if cfg.Server.LogLevel != "" {
		env["LOG_LEVEL"] = cfg.Server.LogLevel
	}
	maps.Copy(env, cfg.Server.Env)
	return env
}

// openJournal opens the SQLite database and applies embedded migrations.
func openJournal(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

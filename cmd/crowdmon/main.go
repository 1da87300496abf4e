package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/timzifer/crowdmon/internal/config"
	"github.com/timzifer/crowdmon/internal/dashboard"
	"github.com/timzifer/crowdmon/internal/liveview"
	"github.com/timzifer/crowdmon/internal/logging"
	"github.com/timzifer/crowdmon/internal/prompt"
	"github.com/timzifer/crowdmon/internal/reload"
	"github.com/timzifer/crowdmon/internal/render"
	"github.com/timzifer/crowdmon/internal/storage"
	"github.com/timzifer/crowdmon/internal/surface"
	"github.com/timzifer/crowdmon/telemetry"
)

func main() {
	cfgPath := flag.String("config", "crowdmon.yaml", "Path to configuration file")
	configCheck := flag.Bool("config-check", false, "Validate configuration and exit")
	address := flag.String("address", "", "Device address; answers the startup prompt")
	resetAddress := flag.Bool("reset-address", false, "Clear the stored device address and exit")
	statePath := flag.String("state", "", "Path to the state file")
	liveViewListen := flag.String("live-view-listen", "", "Live view listen address (default :18080)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if *configCheck {
		os.Exit(executeConfigCheck(cfg))
	}
	if err := dashboard.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger, cleanup, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup logger")
	}
	log.Logger = logger

	store, err := openStore(*statePath, cfg.Storage)
	if err != nil {
		cleanup()
		logger.Fatal().Err(err).Msg("failed to open state store")
	}
	if *resetAddress {
		if err := store.Delete(storage.KeyDeviceAddress); err != nil {
			cleanup()
			logger.Fatal().Err(err).Msg("failed to clear device address")
		}
		fmt.Printf("Stored device address cleared (%s).\n", store.Path())
		cleanup()
		return
	}

	collector, err := newTelemetryCollector(cfg.Telemetry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
		collector = telemetry.Noop()
	}

	state := dashboard.NewState(time.Now())
	configurator := prompt.NewConfigurator(prompt.New(os.Stdin, os.Stdout), store, logger)
	conn, err := configurator.Configure(*address)
	switch {
	case errors.Is(err, prompt.ErrNoAddress):
		if err := configurator.Reject(); err != nil {
			logger.Error().Err(err).Msg("show notice")
		}
	case err != nil:
		cleanup()
		logger.Fatal().Err(err).Msg("failed to read device address")
	default:
		state.SetConnection(conn)
	}
	cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := &application{state: state, doc: surface.DefaultLayout(), listen: *liveViewListen, collector: collector}
	if cfg.HotReload {
		if err := runWithHotReload(ctx, *cfgPath, cfg, app); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Fatal().Err(err).Msg("dashboard stopped")
		}
		return
	}

	logger, cleanup, err = logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup logger")
	}
	defer cleanup()
	log.Logger = logger

	sess, err := app.start(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start dashboard")
	}
	defer sess.close()

	if err := sess.driver.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("dashboard stopped with error")
	}
}

// application holds what survives a configuration reload.
type application struct {
	state     *dashboard.State
	doc       *surface.Document
	listen    string
	collector telemetry.Collector
}

type session struct {
	driver *dashboard.Driver
	view   *liveview.Server
}

func (a *application) start(cfg *config.Config, logger zerolog.Logger) (*session, error) {
	driver, err := dashboard.New(cfg, a.state, render.New(a.doc, logger), a.collector, logger)
	if err != nil {
		return nil, err
	}
	view := liveview.New(driver.Handle(), a.doc, surface.DefaultCards, prometheus.DefaultGatherer, logger)
	listen := a.listen
	if listen == "" {
		listen = cfg.Dashboard.Listen
	}
	if err := view.Start(listen); err != nil {
		return nil, fmt.Errorf("start live view: %w", err)
	}
	return &session{driver: driver, view: view}, nil
}

func (s *session) close() {
	if s == nil {
		return
	}
	s.view.Close()
}

func openStore(flagPath string, cfg config.StorageConfig) (*storage.Store, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" {
		path = strings.TrimSpace(cfg.Path)
	}
	if path == "" {
		var err error
		if path, err = storage.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return storage.Open(path)
}

func executeConfigCheck(cfg *config.Config) int {
	if err := dashboard.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration invalid: %v\n", err)
		return 1
	}
	fmt.Printf("Poll interval:        %s\n", cfg.PollInterval())
	fmt.Printf("Request timeout:      %s\n", cfg.RequestTimeout())
	fmt.Printf("Simulation interval:  %s\n", cfg.SimulationInterval())
	fmt.Printf("Time label refresh:   %s\n", cfg.TimeRefreshInterval())
	if expr := strings.TrimSpace(cfg.Device.StatusExpression); expr != "" {
		fmt.Printf("Status expression:    %s\n", expr)
	}
	fmt.Println("Configuration check completed successfully.")
	return 0
}

func runWithHotReload(ctx context.Context, cfgPath string, initialCfg *config.Config, app *application) error {
	watcher, err := reload.NewWatcher(cfgPath)
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	cfg := initialCfg
	for {
		logger, cleanup, err := logging.Setup(cfg.Logging)
		if err != nil {
			return err
		}
		log.Logger = logger

		sess, err := app.start(cfg, logger)
		if err != nil {
			cleanup()
			return err
		}

		runCtx, cancelRun := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() {
			errCh <- sess.driver.Run(runCtx)
		}()

		var changed []string
	loop:
		for {
			select {
			case <-ctx.Done():
				cancelRun()
				err := <-errCh
				sess.close()
				cleanup()
				if err != nil {
					return err
				}
				return ctx.Err()
			case err := <-errCh:
				cancelRun()
				sess.close()
				cleanup()
				return err
			case <-ticker.C:
				changes, err := watcher.Check()
				if err != nil {
					logger.Error().Err(err).Msg("failed to check configuration changes")
					continue
				}
				if len(changes) == 0 {
					continue
				}
				newCfg, err := config.Load(cfgPath)
				if err != nil {
					logger.Error().Err(err).Msg("failed to reload configuration")
					continue
				}
				if err := dashboard.Validate(newCfg); err != nil {
					logger.Error().Err(err).Msg("reloaded configuration invalid")
					continue
				}
				cancelRun()
				if err := <-errCh; err != nil {
					logger.Error().Err(err).Msg("dashboard stopped during reload")
				}
				sess.close()
				logger.Info().Strs("files", changes).Msg("configuration reloaded")
				cleanup()
				if err := watcher.Update(cfgPath); err != nil {
					logger.Error().Err(err).Msg("failed to update watcher state")
				}
				changed = changes
				cfg = newCfg
				break loop
			}
		}

		for _, file := range changed {
			app.collector.IncHotReload(file)
		}
	}
}

func newTelemetryCollector(cfg config.TelemetryConfig) (telemetry.Collector, error) {
	if !cfg.Enabled {
		return telemetry.Noop(), nil
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", "prometheus":
		collector, err := telemetry.NewPrometheusCollector(nil)
		if err != nil {
			return nil, err
		}
		return collector, nil
	default:
		return telemetry.Noop(), fmt.Errorf("unsupported telemetry provider %q", cfg.Provider)
	}
}

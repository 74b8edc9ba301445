package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teenastro/pkg/alpaca"
	"teenastro/pkg/config"
	"teenastro/pkg/drivers/teenastro"
	"teenastro/templates"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("db") {
		cfg.Server.Database = c.String("db")
	}
	if c.Bool("debug") {
		cfg.Log.Level = "debug"
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("serial") && len(cfg.Devices) > 0 {
		cfg.Devices[0].SerialPort = c.String("serial")
	}
	if c.Bool("simulate") {
		for i := range cfg.Devices {
			cfg.Devices[i].Simulate = true
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.ApplyLogging()

	log.Info("TeenAstro Alpaca Server")

	tmpl, err := templates.LoadTemplates()
	if err != nil {
		return fmt.Errorf("failed to load templates: %v", err)
	}

	db, err := bolt.Open(cfg.Server.Database, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	defer db.Close()

	store, err := alpaca.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create store: %v", err)
	}

	var devices []alpaca.Device
	for _, dc := range cfg.Devices {
		opts := teenastro.Options{Simulate: dc.Simulate, SerialPort: dc.SerialPort}
		logger := log.WithField("device", fmt.Sprintf("telescope%d", dc.Number))

		drv, err := teenastro.NewDriver(dc.Number, db, tmpl, opts, logger)
		if err != nil {
			return fmt.Errorf("failed to create telescope %d: %v", dc.Number, err)
		}
		defer drv.Close()
		devices = append(devices, drv)
	}

	serverDesc := alpaca.ServerDescription{
		Name:                cfg.Server.Name,
		Manufacturer:        "TeenAstro",
		ManufacturerVersion: "1.0",
		Location:            cfg.Server.Location,
	}
	server := alpaca.NewServer(serverDesc, devices, store, tmpl, log.WithField("component", "server"))

	mux := server.AddRoutes()
	if cfg.Server.Metrics {
		if err := teenastro.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("failed to register metrics: %v", err)
		}
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	// Listen for interrupt or terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Debugf("Server started on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not listen on %s: %w", srv.Addr, err)
		}
		return nil
	})

	if cfg.Server.Discovery {
		dr := alpaca.NewDiscoveryResponder("0.0.0.0", cfg.Server.Port, log.WithField("component", "discovery"))
		g.Go(func() error {
			defer log.Debug("Discovery responder stopped")
			return dr.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

func main() {
	app := cli.App{
		Name:  "teenastro-alpaca",
		Usage: "ASCOM Alpaca server for TeenAstro telescope mounts",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				Value:   false,
				EnvVars: []string{"DEBUG"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   8090,
				EnvVars: []string{"ALPACA_PORT"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"TEENASTRO_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Database file",
				Value:   "alpaca.db",
				EnvVars: []string{"TEENASTRO_DB"},
			},
			&cli.StringFlag{
				Name:    "serial",
				Aliases: []string{"s"},
				Usage:   "Serial port of the first telescope",
				EnvVars: []string{"TEENASTRO_SERIAL"},
			},
			&cli.BoolFlag{
				Name:    "simulate",
				Usage:   "Use the simulated controller",
				EnvVars: []string{"TEENASTRO_SIMULATE"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text or json)",
				Value: "text",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

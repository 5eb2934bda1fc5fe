// flightfare - flight price prediction service and tools
//
// Usage:
//
//	flightfare serve
//	flightfare predict --from Sao_Paulo --destination Natal --flight-type economic --agency Rainbow
//	flightfare batch --in flights.csv --out prices.csv
//	flightfare schema
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"flightfare/app"
	"flightfare/config"
	"flightfare/logging"
	"flightfare/ml"
	"flightfare/pipeline"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "flightfare",
		Usage:   "Flight price prediction from a fitted scaler and regression model",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"FLIGHTFARE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Path to .env file (ignored when missing)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},

		Commands: []*cli.Command{
			serveCommand(),
			predictCommand(),
			batchCommand(),
			schemaCommand(),
		},
	}
}

// loadConfig applies the global flags on top of config.Load.
func loadConfig(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func loadPredictor(cfg *config.Config) (*ml.Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return ml.LoadPredictor(cfg.Artifacts.ScalerPath, cfg.Artifacts.ModelPath, cfg.Predict.CacheSize)
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP prediction service",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}

			service, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return service.Run(ctx)
		},
	}
}

// =============================================================================
// PREDICT COMMAND
// =============================================================================

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Predict the price of a single flight",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Origin city", Required: true},
			&cli.StringFlag{Name: "destination", Usage: "Destination city", Required: true},
			&cli.StringFlag{Name: "flight-type", Usage: "Flight class", Required: true},
			&cli.StringFlag{Name: "agency", Usage: "Booking agency", Required: true},
			&cli.IntFlag{Name: "week-no", Value: 7, Usage: "Week of year"},
			&cli.IntFlag{Name: "week-day", Value: 5, Usage: "Day of week"},
			&cli.IntFlag{Name: "day", Value: 5, Usage: "Day of month"},
			&cli.BoolFlag{Name: "strict", Usage: "Reject unknown categories"},
			&cli.BoolFlag{Name: "features", Usage: "Also print the encoded feature vector"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer logger.Sync()

			req := ml.PredictionRequest{
				From:        ml.City(c.String("from")),
				Destination: ml.City(c.String("destination")),
				FlightType:  ml.FlightType(c.String("flight-type")),
				Agency:      ml.Agency(c.String("agency")),
				WeekNo:      c.Int("week-no"),
				WeekDay:     c.Int("week-day"),
				Day:         c.Int("day"),
			}
			if c.Bool("strict") || cfg.Predict.StrictCategories {
				req = req.Canonical()
				if err := req.Validate(); err != nil {
					return err
				}
			}

			predictor, err := loadPredictor(cfg)
			if err != nil {
				return err
			}
			price, err := predictor.Predict(c.Context, req)
			if err != nil {
				return err
			}

			if c.Bool("features") {
				for _, f := range ml.Encode(req).Named() {
					fmt.Fprintf(c.App.Writer, "%-28s %g\n", f.Name, f.Value)
				}
			}
			fmt.Fprintln(c.App.Writer, ml.FormatPrice(price))
			return nil
		},
	}
}

// =============================================================================
// BATCH COMMAND
// =============================================================================

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Predict every row of a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "Input CSV (default stdin)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output CSV (default stdout)"},
			&cli.BoolFlag{Name: "strict", Usage: "Reject unknown categories"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer logger.Sync()

			predictor, err := loadPredictor(cfg)
			if err != nil {
				return err
			}

			in := c.App.Reader
			if path := c.String("in"); path != "" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			out := c.App.Writer
			if path := c.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			stats, err := pipeline.RunBatch(ctx, predictor, in, out, pipeline.BatchOptions{
				StrictCategories: c.Bool("strict") || cfg.Predict.StrictCategories,
				Logger:           logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "%d rows, %d predicted, %d failed\n", stats.Rows, stats.Succeeded, stats.Failed)
			return nil
		},
	}
}

// =============================================================================
// SCHEMA COMMAND
// =============================================================================

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the encoded feature columns in model order",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print as JSON array"},
		},
		Action: func(c *cli.Context) error {
			names := ml.FeatureNames()
			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(names)
			}
			for i, name := range names {
				fmt.Fprintf(c.App.Writer, "%2d  %s\n", i, name)
			}
			return nil
		},
	}
}

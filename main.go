package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"garmin-zones/internal/auth"
	"garmin-zones/internal/config"
	"garmin-zones/internal/daily"
	"garmin-zones/internal/garmin"
	"garmin-zones/internal/logging"
	"garmin-zones/internal/report"
	"garmin-zones/internal/respcache"
	"garmin-zones/internal/server"
	"garmin-zones/internal/store"
	"garmin-zones/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "garmin-zones",
		Short:         "Heart rate zone time and training load from Garmin Connect",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.garmin-zones/config.json)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(newLoginCmd(&flags))
	root.AddCommand(newServeCmd(&flags))
	root.AddCommand(newReportCmd(&flags))
	root.AddCommand(newTUICmd(&flags))
	return root
}

// app holds everything the commands share once config and auth are loaded
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *store.DB
	client  *garmin.Client
	agg     *daily.Aggregator
	reports *report.Builder
}

func (f *rootFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	return logging.NewLogger(w, level)
}

func (f *rootFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if errors.Is(err, config.ErrNoConfig) {
		if f.configPath == "" {
			if cerr := config.CreateExample(); cerr != nil {
				return nil, fmt.Errorf("creating example config: %w", cerr)
			}
			dir, _ := config.GetConfigDir()
			return nil, fmt.Errorf("no config found; edit the example at %s/config.json", dir)
		}
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadApp wires the Garmin client, day cache and report builder from
// stored credentials and logs to logOut. Callers must close app.db.
func (f *rootFlags) loadApp(logOut io.Writer) (*app, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := f.logger(logOut)

	db, err := store.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Garmin.ClientID,
		ClientSecret: cfg.Garmin.ClientSecret,
		TokenURL:     cfg.Garmin.TokenURL,
	})
	tokenSource, err := auth.StoredTokenSource(db, oauthCfg)
	if errors.Is(err, auth.ErrLoginRequired) {
		db.Close()
		return nil, fmt.Errorf("%w: run 'garmin-zones login' first", err)
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	client := garmin.NewClient(cfg.Garmin.APIURL, tokenSource)
	agg := daily.NewAggregator(client, daily.NewDayCache(), logger,
		daily.WithConcurrency(cfg.Server.FetchConcurrency))
	reports := report.NewBuilder(agg, report.Settings{
		Weeks:        cfg.Report.Weeks,
		TrailingDays: cfg.Report.TrailingDays,
		MonthDays:    cfg.Report.MonthDays,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		client:  client,
		agg:     agg,
		reports: reports,
	}, nil
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var credsPath string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Garmin Connect and store the tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if credsPath == "" {
				if credsPath, err = auth.DefaultCredentialsPath(); err != nil {
					return err
				}
			}
			creds, err := auth.LoadCredentials(credsPath, os.Getenv)
			if err != nil {
				return err
			}

			db, err := store.OpenDefault()
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			oauthCfg := auth.NewOAuthConfig(auth.Config{
				ClientID:     cfg.Garmin.ClientID,
				ClientSecret: cfg.Garmin.ClientSecret,
				TokenURL:     cfg.Garmin.TokenURL,
			})
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			token, err := auth.Login(ctx, oauthCfg, creds)
			if err != nil {
				return err
			}
			if err := auth.SaveLogin(db, creds.Email, token, time.Now()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", creds.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&credsPath, "credentials", "", "credentials file with email:password (default ~/.garth/creds)")
	return cmd
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stats page and aggregation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.loadApp(os.Stderr)
			if err != nil {
				return err
			}
			defer a.db.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cache := respcache.New(a.logger, a.cfg.Server.RefreshWorkers, a.cfg.Server.RefreshQueue)
			srv := server.New(a.logger, a.agg, a.reports, cache, a.client)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return cache.Run(gctx) })
			g.Go(func() error { return srv.ListenAndServe(gctx, addr) })

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newReportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the stats report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.loadApp(os.Stderr)
			if err != nil {
				return err
			}
			defer a.db.Close()

			r, err := a.reports.Build(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), report.RenderText(r))
			return nil
		},
	}
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			// the alt screen owns the terminal
			a, err := flags.loadApp(io.Discard)
			if err != nil {
				return err
			}
			defer a.db.Close()

			p := tea.NewProgram(tui.NewApp(a.reports, a.agg), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running TUI: %w", err)
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/livesync/internal/config"
	"github.com/vango-dev/livesync/internal/errors"
	"github.com/vango-dev/livesync/pkg/client"
	"github.com/vango-dev/livesync/pkg/posts"
	"github.com/vango-dev/livesync/pkg/protocol"
)

type watchOptions struct {
	configPath  string
	url         string
	api         string
	board       string
	thread      uint64
	lastN       int
	metricsAddr string
	logFormat   string
	logLevel    string
}

func watchCmd() *cobra.Command {
	return newWatchCmd(&watchOptions{})
}

func newWatchCmd(opts *watchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a board or thread",
		Long: `Connect to the server, load the thread and report every change.

Settings are read from livesync.json, livesync.jsonc, livesync.yaml or
livesync.yml in the working directory unless --config is given. Flags
override values from the file.

Examples:
  livesync watch --board a --thread 1234
  livesync watch --board a --thread 1234 --last-n 100
  livesync watch --config ./livesync.yaml --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Configuration file (default: search the working directory)")
	f.StringVar(&opts.url, "url", "", "WebSocket endpoint")
	f.StringVar(&opts.api, "api", "", "Root of the JSON API")
	f.StringVarP(&opts.board, "board", "b", "", "Board to watch")
	f.Uint64VarP(&opts.thread, "thread", "t", 0, "Thread to watch (0 watches the board index)")
	f.IntVar(&opts.lastN, "last-n", 0, "Only load the last N replies")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	return cmd
}

// resolveConfig loads the configuration file and applies flag overrides.
func resolveConfig(cmd *cobra.Command, opts *watchOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Find(wd)
		}
	}

	cfg := config.New()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("url") {
		cfg.URL = opts.url
	}
	if f.Changed("api") {
		cfg.API = opts.api
	}
	if f.Changed("board") {
		cfg.Board = opts.board
	}
	if f.Changed("thread") {
		cfg.Thread = opts.thread
	}
	if f.Changed("last-n") {
		cfg.LastN = opts.lastN
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if f.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if f.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Board == "" {
		return nil, errors.New("E200").
			WithSuggestion("Run livesync watch --board <board>")
	}
	return cfg, nil
}

// newLogger builds the slog handler selected by format.
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.New("E202").
			WithSource("", "log.level").
			Wrap(err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.New("E201").
			WithSource("", "log.format").
			WithDetailf("Unknown log format %q.", format)
	}
}

type threadFetcher interface {
	FetchThread(ctx context.Context, board string, thread uint64, lastN int) (*protocol.ThreadData, error)
}

// seedThread loads the initial contents of the watched thread.
func seedThread(ctx context.Context, f threadFetcher, page client.Page, collection *posts.Collection) error {
	t, err := f.FetchThread(ctx, page.Board(), page.Thread(), page.LastN())
	if err != nil {
		return errors.New("E300").
			WithDetailf("Thread /%s/%d could not be fetched.", page.Board(), page.Thread()).
			Wrap(err)
	}
	collection.Add(posts.NewOpeningPost(*t))
	for _, p := range t.Posts {
		collection.Add(posts.NewPost(p))
	}
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, out, logOut io.Writer) error {
	logger, err := newLogger(logOut, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsOpts := []client.MetricsOption{client.WithRegistry(reg)}
	if cfg.Metrics.Namespace != "" {
		metricsOpts = append(metricsOpts, client.WithNamespace(cfg.Metrics.Namespace))
	}

	ccfg := cfg.Client()
	page := cfg.Page()
	fetcher := client.NewHTTPFetcher(ccfg.APIURL, nil)
	collection := posts.NewCollection(&logRenderer{logger: logger.With("component", "view")})

	if page.Thread() != 0 {
		seedCtx, cancel := context.WithTimeout(ctx, ccfg.FetchTimeout)
		err := seedThread(seedCtx, fetcher, page, collection)
		cancel()
		if err != nil {
			return err
		}
	}
	collection.OnAdd(func(p *posts.Post) {
		logger.Info("post added", "post", p.ID(), "name", p.Data().Name, "editing", p.Editing())
	})
	collection.OnRemove(func(p *posts.Post) {
		logger.Info("post removed", "post", p.ID())
	})

	c := client.New(client.Options{
		Config:  ccfg,
		Page:    page,
		Posts:   collection,
		Fetcher: fetcher,
		Alerter: client.AlertFunc(func(msg string) { warn(out, "%s", msg) }),
		Logger:  logger,
		Metrics: client.NewMetrics(metricsOpts...),
	})
	c.OnStatusChange(func(s client.SyncStatus) {
		switch s {
		case client.StatusSynced:
			success(out, "Synced, %d posts", collection.Len())
		case client.StatusDesynced:
			warn(out, "%s", desyncMessage(c.DesyncErr()))
		default:
			logger.Info("status changed", "status", s)
		}
	})

	if cfg.Metrics.Addr != "" {
		stopMetrics, err := serveMetrics(cfg.Metrics.Addr, newMetricsRouter(reg, loopStatus(c)), logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	printBanner(out)
	if page.Thread() == 0 {
		fmt.Fprintf(out, "  watching /%s/\n\n", page.Board())
	} else {
		fmt.Fprintf(out, "  watching /%s/%d (%d posts)\n\n", page.Board(), page.Thread(), collection.Len())
	}

	return c.Run(ctx)
}

// desyncMessage describes why the server gave up on the client.
func desyncMessage(cause error) string {
	return errors.New("E301").Wrap(cause).FormatCompact()
}

// loopStatus reads the client status from outside its loop.
func loopStatus(c *client.Client) statusFunc {
	return func(ctx context.Context) (client.SyncStatus, error) {
		var s client.SyncStatus
		err := c.Loop().Do(ctx, func() { s = c.Status() })
		return s, err
	}
}

// Package cli implements the storefront command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/storefront/internal/api"
	"github.com/mesh-intelligence/storefront/internal/config"
	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/logging"
	"github.com/mesh-intelligence/storefront/internal/paths"
	"github.com/mesh-intelligence/storefront/internal/session"
	"github.com/mesh-intelligence/storefront/internal/sqlite"
	"github.com/mesh-intelligence/storefront/pkg/storefront"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

func exitError(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// rootFlags holds global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	apiURL    string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by one command invocation. Storage and the API
// services are opened lazily by commands that need them.
type app struct {
	flags rootFlags

	configDir string
	dataDir   string
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry

	storage *sqlite.Backend
	tokens  *session.Tokens
	svc     *api.Services
}

// NewRootCmd creates the top-level "storefront" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "A command-line client for the marketplace API",
		Long:          "Storefront browses the catalog, keeps a local cart, places orders, and\nmanages a seller's store against the marketplace REST API.",
		Version:       storefront.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/storefront)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/storefront)")
	pf.StringVar(&a.flags.apiURL, "api-url", "", "marketplace API base URL (overrides api_url)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log_level)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newConfigCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newProfileCmd(a),
		newRegisterCmd(a),
		newPasswordCmd(a),
		newProductsCmd(a),
		newCategoriesCmd(a),
		newStoreCmd(a),
		newCartCmd(a),
		newCheckoutCmd(a),
		newOrdersCmd(a),
		newStatsCmd(a),
		newThemeCmd(a),
		newMockServerCmd(a),
	)
	return root, a
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line in args and maps the outcome to an exit
// code. Storage is detached whether or not the command succeeded.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, a := newRoot()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitUserError
}

// setup resolves directories, loads configuration, and builds the logger.
// The version command needs none of it.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return exitError(exitSysError, "resolve config dir: %w", err)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return exitError(exitUserError, "%w", err)
		}
		return exitError(exitSysError, "%w", err)
	}
	if a.flags.apiURL != "" {
		cfg.APIURL = a.flags.apiURL
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return exitError(exitUserError, "%w", err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return exitError(exitSysError, "resolve data dir: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	})
	if err != nil {
		return exitError(exitUserError, "create logger: %w", err)
	}

	a.configDir, a.dataDir, a.cfg, a.logger = configDir, dataDir, cfg, logger
	a.registry = prometheus.NewRegistry()
	cmd.SetContext(logging.WithContext(cmd.Context(), logger))
	logger.Debug("configuration loaded",
		zap.String("config_dir", configDir),
		zap.String("data_dir", dataDir),
		zap.String("api_url", cfg.APIURL))
	return nil
}

// openStorage attaches the client-local storage.
func (a *app) openStorage() error {
	if a.storage != nil {
		return nil
	}
	backend := sqlite.NewBackend()
	if err := backend.Attach(a.cfg.Storage(a.dataDir)); err != nil {
		return exitError(exitSysError, "attach storage: %w", err)
	}
	a.storage = backend
	a.tokens = session.NewTokens(backend)
	return nil
}

// services opens storage and builds the API services over one client.
func (a *app) services() (*api.Services, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	if err := a.openStorage(); err != nil {
		return nil, err
	}
	client, err := fetch.NewClient(fetch.Config{
		BaseURL:   a.cfg.APIURL,
		Timeout:   a.cfg.Timeout,
		Tokens:    a.tokens,
		RateLimit: a.cfg.RateLimit,
		Logger:    a.logger.Named("fetch"),
		Metrics:   fetch.NewMetrics(a.registry),
	})
	if err != nil {
		return nil, exitError(exitUserError, "create client: %w", err)
	}
	a.svc = api.New(client, a.tokens, a.cfg.RefreshTimeout)
	return a.svc, nil
}

// close logs request metrics and detaches storage.
func (a *app) close() error {
	if a.registry != nil && a.logger != nil {
		logMetrics(a.logger, a.registry)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.storage == nil {
		return nil
	}
	err := a.storage.Detach()
	a.storage, a.tokens, a.svc = nil, nil, nil
	if err != nil {
		return exitError(exitSysError, "detach storage: %w", err)
	}
	return nil
}

// logMetrics writes the counters gathered during the invocation at debug
// level.
func logMetrics(logger *zap.Logger, reg prometheus.Gatherer) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		logger.Debug("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			fields := []zap.Field{zap.String("metric", mf.GetName()), zap.Float64("value", m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			logger.Debug("metric", fields...)
		}
	}
}

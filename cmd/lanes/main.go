package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/lanes/internal/adapters/storage/sqlite"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/config"
	"github.com/evanschultz/lanes/internal/platform"
	"github.com/evanschultz/lanes/internal/tui"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// run builds the command tree and executes args against it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(stderr, "warning: load .env: %v\n", err)
	}

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// newRootCommand constructs the lanes command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{appName: platform.DefaultAppName, devMode: version == "dev"}
	if envApp := strings.TrimSpace(os.Getenv("LANES_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	if envDev, ok := parseBoolEnv("LANES_DEV_MODE"); ok {
		opts.devMode = envDev
	}

	root := &cobra.Command{
		Use:           "lanes",
		Short:         "A task board with drag-and-drop columns and project tabs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts, stdout),
		newExportCommand(opts, stdout, stderr),
		newImportCommand(opts, stdout, stderr),
		newAddCommand(opts, stdout, stderr),
		newInitConfigCommand(opts, stdout),
	)
	return root
}

// boardRuntime bundles the resources every board-touching command opens.
type boardRuntime struct {
	cfg    config.Config
	paths  platform.Paths
	logger *runtimeLogger
	repo   *sqlite.Repository
	store  *app.Store
}

// Close releases the repository and the log file.
func (r *boardRuntime) Close() {
	if r.repo != nil {
		if err := r.repo.Close(); err != nil {
			r.logger.Warn("sqlite close failed", "db_path", r.cfg.Database.Path, "err", err)
		}
	}
	_ = r.logger.Close()
}

// openRuntime resolves paths and config, configures logging, and opens the board store.
func openRuntime(ctx context.Context, opts *rootOptions, command string, stderr io.Writer) (*boardRuntime, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}
	configPath := resolveConfigPath(opts, paths)
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("LANES_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// the board owns the terminal; runtime logs go to the dev file only
		logger.MuteConsole()
	}
	rt := &boardRuntime{cfg: cfg, paths: paths, logger: logger}
	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		rt.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	rt.repo = repo
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path)

	snapshots := app.NewSnapshotStore(repo, cfg.Storage.Key, layout, logger)
	rt.store = app.NewStore(snapshots, newIDSuffix, time.Now, app.StoreConfig{
		Layout:        layout,
		Palette:       cfg.Palette.Colors,
		ColorStrategy: app.ColorStrategy(cfg.Palette.Strategy),
		Logger:        logger,
	})
	if err := rt.store.Open(ctx); err != nil {
		rt.Close()
		return nil, fmt.Errorf("open board: %w", err)
	}
	return rt, nil
}

// resolveConfigPath applies the --config flag, then LANES_CONFIG, then the platform default.
func resolveConfigPath(opts *rootOptions, paths platform.Paths) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	if envPath := strings.TrimSpace(os.Getenv("LANES_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// runTUI starts the interactive board.
func runTUI(ctx context.Context, opts *rootOptions, stderr io.Writer) error {
	rt, err := openRuntime(ctx, opts, "tui", stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	idle, err := rt.cfg.IdleTimeout()
	if err != nil {
		return err
	}
	m := tui.NewModel(
		rt.store,
		tui.WithDragBias(rt.cfg.Drag.Bias),
		tui.WithIdleTimeout(idle),
		tui.WithConfirmDeleteProject(rt.cfg.Confirm.DeleteProject),
		tui.WithLogger(rt.logger),
	)
	rt.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "tui")
	return nil
}

// newIDSuffix returns a short random suffix for entity ids.
func newIDSuffix() string {
	return uuid.NewString()[:8]
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

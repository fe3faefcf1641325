package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/config"
	"github.com/evanschultz/lanes/internal/platform"
	"github.com/spf13/cobra"
)

// clipboardWriter stores a package-level helper value.
var clipboardWriter = clipboard.WriteAll

// newPathsCommand prints the resolved config and data locations.
func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data, and export paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", paths.AppName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(stdout, "exports: %s\n", paths.ExportDir)
			return nil
		},
	}
}

// newInitConfigCommand writes the default config file when none exists.
func newInitConfigCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config file if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			path := resolveConfigPath(opts, paths)
			wrote, err := config.WriteDefault(path, config.Default(paths.DBPath))
			if err != nil {
				return fmt.Errorf("init config %q: %w", path, err)
			}
			if !wrote {
				_, _ = fmt.Fprintf(stdout, "config exists: %s\n", path)
				return nil
			}
			_, _ = fmt.Fprintf(stdout, "wrote config: %s\n", path)
			return nil
		},
	}
}

// exportOptions holds export flags.
type exportOptions struct {
	format    string
	outPath   string
	clipboard bool
	render    bool
}

// newExportCommand writes the board snapshot.
func newExportCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	eo := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the board as json, yaml, or markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, "export", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			rt.logger.Info("command flow start", "command", "export", "format", eo.format)
			if err := runExport(rt, eo, stdout); err != nil {
				rt.logger.Error("command flow failed", "command", "export", "err", err)
				return fmt.Errorf("run export command: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "export")
			return nil
		},
	}
	cmd.Flags().StringVar(&eo.format, "format", "json", "output format: json, yaml, or markdown")
	cmd.Flags().StringVar(&eo.outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().BoolVar(&eo.clipboard, "clipboard", false, "also copy the export to the system clipboard")
	cmd.Flags().BoolVar(&eo.render, "render", false, "style markdown output for the terminal")
	return cmd
}

// runExport encodes the current board and writes it to the requested sinks.
func runExport(rt *boardRuntime, eo *exportOptions, stdout io.Writer) error {
	snap := app.SnapshotFromAppData(rt.store.Data())
	encoded, err := encodeExport(snap, rt.store, eo)
	if err != nil {
		return err
	}
	if eo.clipboard {
		if err := clipboardWriter(string(encoded)); err != nil {
			return fmt.Errorf("copy export to clipboard: %w", err)
		}
	}
	if eo.outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write export to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(eo.outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(eo.outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// encodeExport renders snap in the requested format.
func encodeExport(snap app.Snapshot, store *app.Store, eo *exportOptions) ([]byte, error) {
	if strings.EqualFold(strings.TrimSpace(eo.format), "markdown") || strings.EqualFold(strings.TrimSpace(eo.format), "md") {
		md := app.RenderSnapshotMarkdown(snap, store.Layout())
		if !eo.render {
			return []byte(md), nil
		}
		out, err := glamour.Render(md, "dark")
		if err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
		return []byte(out), nil
	}
	if eo.render {
		return nil, fmt.Errorf("--render requires --format markdown")
	}
	format, err := app.ParseSnapshotFormat(eo.format)
	if err != nil {
		return nil, err
	}
	encoded, err := app.EncodeSnapshot(snap, format)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", format, err)
	}
	if format == app.SnapshotFormatJSON {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, encoded, "", "  "); err != nil {
			return nil, fmt.Errorf("indent snapshot json: %w", err)
		}
		pretty.WriteByte('\n')
		encoded = pretty.Bytes()
	}
	return encoded, nil
}

// newImportCommand replaces the board with a snapshot file.
func newImportCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var inPath, format string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the board with a json or yaml snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			rt, err := openRuntime(cmd.Context(), opts, "import", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			rt.logger.Info("command flow start", "command", "import", "in", inPath)

			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			if format == "" {
				format = filepath.Ext(inPath)
			}
			parsed, err := app.ParseSnapshotFormat(format)
			if err != nil {
				return err
			}
			snap, err := app.DecodeSnapshot(content, parsed)
			if err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
			data, warnings := snap.ToAppData(rt.store.Layout())
			for _, w := range warnings {
				rt.logger.Warn("import record repaired", "detail", w)
			}
			if err := rt.store.Replace(cmd.Context(), data); err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			if err := rt.store.LastPersistenceError(); err != nil {
				return fmt.Errorf("save imported board: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "imported %d project(s)\n", len(data.Projects))
			rt.logger.Info("command flow complete", "command", "import", "projects", len(data.Projects))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot file")
	cmd.Flags().StringVar(&format, "format", "", "snapshot format (default: from file extension)")
	return cmd
}

// newAddCommand appends a task without opening the board.
func newAddCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a task to the active or named project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, "add", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			projectID := rt.store.ActiveProjectID()
			if name := strings.TrimSpace(projectName); name != "" {
				projectID = ""
				for _, p := range rt.store.Projects() {
					if strings.EqualFold(p.Name, name) {
						projectID = p.ID
						break
					}
				}
				if projectID == "" {
					return fmt.Errorf("project %q not found", name)
				}
			}
			task, err := rt.store.AddTask(cmd.Context(), projectID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := rt.store.LastPersistenceError(); err != nil {
				return fmt.Errorf("save task: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "added %s %q\n", task.ID, task.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectName, "project", "", "project name (default: active project)")
	return cmd
}

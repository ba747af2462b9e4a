package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/grizzly/internal/config"
	"github.com/roach88/grizzly/internal/executor"
	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/output"
	"github.com/roach88/grizzly/internal/pipeline"
	"github.com/roach88/grizzly/internal/sqlgen"
	"github.com/roach88/grizzly/internal/store"
)

// loadConfig loads grizzly.yaml, environment and defaults.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, path, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		slog.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// loadPipelines loads path and keeps the pipeline named name, or all of them
// when name is empty.
func loadPipelines(path, name string) ([]*pipeline.Pipeline, error) {
	ps, err := pipeline.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded pipelines", "path", path, "count", len(ps))
	if name == "" {
		return ps, nil
	}
	for _, p := range ps {
		if p.Name == name {
			return []*pipeline.Pipeline{p}, nil
		}
	}
	return nil, errPipelineNotFound{name: name, path: path}
}

type errPipelineNotFound struct {
	name string
	path string
}

func (e errPipelineNotFound) Error() string {
	return fmt.Sprintf("pipeline %q not found in %s", e.name, e.path)
}

// runtime bundles the live collaborators a materializing command needs.
type runtime struct {
	cfg     *config.Config
	exec    *executor.Executor
	history *store.Store
	printer *output.Printer
	gen     *sqlgen.Generator
	session *frame.Session
}

// openRuntime connects to the configured database and, when enabled, the
// history store, and wires both into a generator-backed session.
func openRuntime(ctx context.Context, cfg *config.Config, w io.Writer) (*runtime, error) {
	dialect, err := cfg.SQLDialect()
	if err != nil {
		return nil, fmt.Errorf("dialect: %w", err)
	}
	dsn, err := cfg.ConnectionString()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	exec, err := executor.Open(ctx, cfg.Database.Driver, dsn, executor.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}

	r := &runtime{
		cfg:     cfg,
		exec:    exec,
		printer: output.NewPrinter(w),
	}
	r.gen = &sqlgen.Generator{
		Compiler: sqlgen.NewCompiler(dialect),
		Runner:   exec,
		Printer:  r.printer,
	}

	if cfg.History.Enabled {
		st, err := store.Open(cfg.History.Path)
		if err != nil {
			// History is best effort; queries still run without it.
			slog.Warn("query history disabled", "path", cfg.History.Path, "error", err)
		} else {
			r.history = st
			r.gen.History = st
		}
	}

	r.session = frame.NewSession(frame.WithGenerator(r.gen))
	return r, nil
}

func (r *runtime) Close() error {
	var errs []error
	if r.history != nil {
		errs = append(errs, r.history.Close())
	}
	if r.exec != nil {
		errs = append(errs, r.exec.Close())
	}
	return errors.Join(errs...)
}

// historyExists reports whether the history database has been created.
func historyExists(path string) bool {
	_, err := os.Stat(filepath.Clean(path))
	return err == nil
}

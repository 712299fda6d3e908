package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/maksv/neurite/internal/bindings"
	"github.com/maksv/neurite/internal/ctxlog"
	"github.com/maksv/neurite/internal/eqn"
	"github.com/maksv/neurite/internal/fsutil"
	"github.com/maksv/neurite/internal/units"
)

// App encapsulates the compiler's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger; the model report is
// written to outW, logs to logW.
func NewApp(outW, logW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
	}
}

// Run compiles every equation file reachable from the configured paths into
// one finalized model and renders its report. Warnings are logged as they
// accumulate; the first fatal error aborts the run.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	var scope units.Scope
	if a.config.BindingsPath != "" {
		var err error
		scope, err = bindings.Load(a.config.BindingsPath)
		if err != nil {
			return err
		}
		a.logger.Debug("External bindings loaded.", "path", a.config.BindingsPath, "count", len(scope))
	}

	set, err := a.compile(ctx, scope)
	if err != nil {
		return err
	}

	if a.config.Freeze {
		if err := set.Freeze(ctx); err != nil {
			return err
		}
		a.logger.Debug("Model frozen.")
	}

	a.render(set)
	return nil
}

// compile parses each discovered file into its own set and merges them all
// into one model, so cross-file name collisions surface as naming conflicts
// rather than silent shadowing.
func (a *App) compile(ctx context.Context, scope units.Scope) (*eqn.Set, error) {
	var files []string
	for _, path := range a.config.Paths {
		found, err := fsutil.FindFilesByExtension(path, ".eqn")
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	a.logger.Debug("Equation files discovered.", "count", len(files))

	var model *eqn.Set
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		var opts []eqn.Option
		if scope != nil {
			opts = append(opts, eqn.WithScopes(scope))
		}
		set, err := eqn.Parse(ctx, string(src), opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		if model == nil {
			model = set
			continue
		}
		if err := model.Merge(ctx, set); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	if err := model.Prepare(ctx); err != nil {
		return nil, err
	}
	return model, nil
}

// render writes the compiled model report: the reference variable, every
// variable with its kind and unit, and the static evaluation order.
func (a *App) render(set *eqn.Set) {
	if ref, ok := set.ReferenceVariable(); ok {
		fmt.Fprintf(a.outW, "reference variable: %s\n", ref)
	}

	fmt.Fprintln(a.outW, "variables:")
	names := append(set.DifferentialNames(), set.StaticNames()...)
	for _, name := range names {
		kind, _ := set.KindOf(name)
		unit, _ := set.UnitOf(name)
		line := fmt.Sprintf("  %-12s %-21s %s", name, kind, unit.Dim)
		if deps := set.StaticDependencies(name); len(deps) > 0 {
			line += fmt.Sprintf("  (uses %s)", strings.Join(deps, ", "))
		}
		fmt.Fprintln(a.outW, line)
	}

	if aliases := set.Aliases(); len(aliases) > 0 {
		names := make([]string, 0, len(aliases))
		for name := range aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(a.outW, "aliases:")
		for _, name := range names {
			fmt.Fprintf(a.outW, "  %s = %s\n", name, aliases[name])
		}
	}

	if warnings := set.Warnings(); len(warnings) > 0 {
		fmt.Fprintf(a.outW, "warnings: %d\n", len(warnings))
	}
}

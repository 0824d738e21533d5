package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/flags"
	"github.com/zjrosen/dvars/internal/infrastructure/sqlite"
	"github.com/zjrosen/dvars/internal/log"
	"github.com/zjrosen/dvars/internal/service"
	"github.com/zjrosen/dvars/internal/tracing"
)

const defaultLogPath = "debug.log"

// appOptions select what newApp wires beyond the registry.
type appOptions struct {
	store   bool // open the sqlite snapshot store
	teaLog  bool // log through tea.LogToFile
	service []service.Option
}

// app is one bootstrapped registry plus the resources it holds open.
type app struct {
	svc      *service.Service
	db       *sqlite.DB
	provider *tracing.Provider
	closeLog func()
}

// newApp builds and bootstraps the service described by cfg.
func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	a := &app{closeLog: func() {}}

	if debug || cfg.Log.Debug || cfg.Log.Path != "" {
		path := cfg.Log.Path
		if path == "" {
			path = defaultLogPath
		}
		var err error
		if opts.teaLog {
			a.closeLog, err = log.InitWithTeaLog(path, "dvars")
		} else {
			a.closeLog, err = log.Init(path)
		}
		if err != nil {
			return nil, err
		}
		if !debug && !cfg.Log.Debug {
			log.SetMinLevel(log.LevelInfo)
		}
	}

	provider, err := tracing.NewProvider(cfg.Tracing, tracing.WithServiceName("dvars"))
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("starting tracing: %w", err)
	}
	a.provider = provider

	ff := flags.New(cfg.Flags)
	reg := dvar.New(
		dvar.WithCapacity(cfg.Registry.Capacity),
		dvar.WithCallbackCapacity(cfg.Registry.CallbackCapacity),
		dvar.WithFatalHandler(fatalHandler(cmd.ErrOrStderr())),
		dvar.WithDiagnostics(diagnosticPrinter(cmd.ErrOrStderr())),
		dvar.WithTracer(provider.Tracer()),
		dvar.WithStrictNames(ff.Enabled(flags.FlagStrictNames)),
	)

	svcOpts := []service.Option{service.WithFlags(ff), service.WithTracer(provider.Tracer())}
	if opts.store {
		db, err := sqlite.NewDB(cfg.Store.Path)
		if err != nil {
			_ = a.shutdownTracing()
			a.closeLog()
			return nil, err
		}
		a.db = db
		svcOpts = append(svcOpts, service.WithStore(db.SnapshotRepository()))
	}
	svcOpts = append(svcOpts, opts.service...)

	a.svc = service.New(reg, cfg, svcOpts...)
	if _, err := a.svc.Bootstrap(cmd.Context()); err != nil {
		return nil, errors.Join(err, a.Close(cmd.Context()))
	}
	return a, nil
}

// Close persists archived changes when enabled and releases everything
// newApp opened.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.svc != nil {
		errs = append(errs, a.svc.PersistIfEnabled(ctx), a.svc.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	errs = append(errs, a.shutdownTracing())
	a.closeLog()
	return errors.Join(errs...)
}

func (a *app) shutdownTracing() error {
	if a.provider == nil {
		return nil
	}
	return a.provider.Shutdown(context.Background())
}

// withApp runs fn against a bootstrapped app and closes it afterwards.
func withApp(cmd *cobra.Command, opts appOptions, fn func(*app) error) (err error) {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close(cmd.Context()))
	}()
	return fn(a)
}

func fatalHandler(w io.Writer) func(error) {
	return func(err error) {
		log.ErrorErr(log.CatDvar, "Fatal registry error", err)
		_, _ = fmt.Fprintf(w, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// diagnosticPrinter reports refused or adjusted changes on w. Type
// mismatches stay in the debug log.
func diagnosticPrinter(w io.Writer) func(dvar.Diagnostic) {
	return func(d dvar.Diagnostic) {
		if d.Kind == dvar.DiagTypeMismatch {
			return
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", d.Kind, d.Message)
	}
}

func parseSource(s string) (dvar.Source, error) {
	src, ok := dvar.ParseSource(s)
	if !ok {
		return src, fmt.Errorf("unknown source %q (want internal, external or script)", s)
	}
	return src, nil
}

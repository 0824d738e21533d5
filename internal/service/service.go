// Package service ties the registry to its sources and sinks: the builtin
// catalog, the archive file, HCL overrides, the snapshot store and hot
// reload. The CLI and the inspector talk to the registry through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dvars/internal/archive"
	"github.com/zjrosen/dvars/internal/builtin"
	"github.com/zjrosen/dvars/internal/config"
	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/flags"
	"github.com/zjrosen/dvars/internal/hclsource"
	"github.com/zjrosen/dvars/internal/log"
	"github.com/zjrosen/dvars/internal/snapshot"
	"github.com/zjrosen/dvars/internal/tracing"
)

var (
	// ErrNotFound is returned for names with no variable.
	ErrNotFound = errors.New("dvar not found")

	// ErrInvalidName is returned for names that are not letters, digits
	// and underscores.
	ErrInvalidName = errors.New("invalid dvar name")
)

// Service owns a registry and the components around it.
type Service struct {
	reg       *dvar.Registry
	cfg       config.Config
	flags     *flags.Registry
	store     snapshot.Repository
	tracer    trace.Tracer
	describer *Describer
	builtins  *builtin.Vars
	onReload  func(paths []string, applied int, err error)
}

// Option configures a Service.
type Option func(*Service)

// WithStore sets the snapshot repository. Without it snapshots are kept in
// memory.
func WithStore(repo snapshot.Repository) Option {
	return func(s *Service) { s.store = repo }
}

// WithTracer sets the tracer used for service spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithFlags sets the feature flags.
func WithFlags(f *flags.Registry) Option {
	return func(s *Service) { s.flags = f }
}

// WithReloadHook is called after each hot reload.
func WithReloadHook(fn func(paths []string, applied int, err error)) Option {
	return func(s *Service) { s.onReload = fn }
}

// New creates a service over reg.
func New(reg *dvar.Registry, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		reg:       reg,
		cfg:       cfg,
		describer: NewDescriber(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = snapshot.NewMemoryRepository()
	}
	if s.flags == nil {
		s.flags = flags.New(cfg.Flags)
	}
	return s
}

// Registry returns the underlying registry.
func (s *Service) Registry() *dvar.Registry { return s.reg }

// Builtins returns the builtin handles, nil before Bootstrap.
func (s *Service) Builtins() *builtin.Vars { return s.builtins }

// Flags returns the feature flags.
func (s *Service) Flags() *flags.Registry { return s.flags }

// Config returns the configuration the service was created with.
func (s *Service) Config() config.Config { return s.cfg }

// BootstrapResult counts what Bootstrap applied.
type BootstrapResult struct {
	Builtins int
	Flags    int
	Archive  int
	HCL      int
}

// Bootstrap registers the builtin catalog and mirrors the feature flags,
// then applies the archive file and each HCL file in order.
func (s *Service) Bootstrap(ctx context.Context) (BootstrapResult, error) {
	ctx, span := tracing.Start(ctx, s.tracer, tracing.SpanBootstrap)
	var res BootstrapResult
	var err error
	defer func() {
		span.SetAttributes(attribute.Int(tracing.AttrDvarCount, s.reg.Count()))
		tracing.End(span, err)
	}()

	before := s.reg.Count()
	s.builtins = builtin.Register(s.reg, s.cfg.Cheats)
	res.Builtins = s.reg.Count() - before
	res.Flags = s.flags.Mirror(s.reg)

	if s.cfg.ArchiveFile != "" {
		res.Archive, err = s.loadArchive(ctx, s.cfg.ArchiveFile)
		if err != nil {
			return res, err
		}
	}
	for _, path := range s.cfg.HCLFiles {
		var n int
		n, err = s.loadHCL(ctx, path)
		res.HCL += n
		if err != nil {
			return res, err
		}
	}

	log.Info(log.CatConfig, "Bootstrapped registry",
		"builtins", res.Builtins, "flags", res.Flags, "archive", res.Archive, "hcl", res.HCL)
	return res, nil
}

func (s *Service) loadArchive(ctx context.Context, path string) (int, error) {
	_, span := tracing.Start(ctx, s.tracer, tracing.SpanLoadArchive, attribute.String(tracing.AttrFilePath, path))
	n, err := archive.LoadFile(path, s.reg, dvar.SourceInternal)
	span.SetAttributes(attribute.Int(tracing.AttrDvarCount, n))
	tracing.End(span, err)
	return n, err
}

func (s *Service) loadHCL(ctx context.Context, path string) (int, error) {
	_, span := tracing.Start(ctx, s.tracer, tracing.SpanLoadHCL, attribute.String(tracing.AttrFilePath, path))
	n, err := hclsource.LoadFile(path, s.reg)
	span.SetAttributes(attribute.Int(tracing.AttrDvarCount, n))
	tracing.End(span, err)
	return n, err
}

// Set parses text into name on behalf of source, creating an external
// string variable when name is unknown.
func (s *Service) Set(_ context.Context, name, text string, source dvar.Source) (*dvar.Variable, error) {
	if name == "" || !dvar.IsValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	v := s.reg.SetFromStringByNameFromSource(name, text, source, dvar.FlagNone)
	if v == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return v, nil
}

// Reset restores name to its reset value.
func (s *Service) Reset(name string, source dvar.Source) (*dvar.Variable, error) {
	v := s.reg.Find(name)
	if v == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	v.Reset(source)
	return v, nil
}

// Get finds name.
func (s *Service) Get(name string) (*dvar.Variable, error) {
	v := s.reg.Find(name)
	if v == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return v, nil
}

// Persist writes every archive-flagged variable to the archive file.
func (s *Service) Persist(ctx context.Context) (err error) {
	path := s.cfg.ArchiveFile
	if path == "" {
		return errors.New("no archive file configured")
	}
	_, span := tracing.Start(ctx, s.tracer, tracing.SpanPersist, attribute.String(tracing.AttrFilePath, path))
	defer func() { tracing.End(span, err) }()

	names := archive.ArchivedNames(s.reg)
	span.SetAttributes(attribute.Int(tracing.AttrDvarCount, len(names)))
	if err := archive.Write(path, s.reg, names); err != nil {
		return err
	}
	s.reg.ClearModifiedFlags(dvar.FlagArchive)
	return nil
}

// PersistIfEnabled persists when the persist-on-exit flag is on and an
// archived variable changed.
func (s *Service) PersistIfEnabled(ctx context.Context) error {
	if !s.flags.Enabled(flags.FlagPersistOnExit) || !s.reg.AnyModified(dvar.FlagArchive) {
		return nil
	}
	return s.Persist(ctx)
}

// Close shuts down the registry and closes the store.
func (s *Service) Close() error {
	s.reg.Shutdown()
	return s.store.Close()
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

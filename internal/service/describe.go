package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/dvars/internal/cachemanager"
	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/log"
	"github.com/zjrosen/dvars/internal/pubsub"
)

const describeTTL = 10 * time.Minute

// Describer caches domain descriptions per variable name and type.
type Describer struct {
	cache *cachemanager.ReadThroughCache[string, string, *dvar.Variable]
}

// NewDescriber returns an empty describer.
func NewDescriber() *Describer {
	mgr := cachemanager.NewInMemoryCacheManager[string, string]("describe", describeTTL, 2*describeTTL)
	return &Describer{
		cache: cachemanager.NewReadThroughCache(mgr, func(_ context.Context, v *dvar.Variable) (string, error) {
			return v.DescribeDomain(), nil
		}, false),
	}
}

func describeKey(name string, t dvar.Type) string {
	return strings.ToLower(name) + "|" + t.String()
}

// Domain returns the domain description of v.
func (d *Describer) Domain(ctx context.Context, v *dvar.Variable) string {
	text, _ := d.cache.Get(ctx, describeKey(v.Name(), v.Type()), v, describeTTL)
	return text
}

// Invalidate drops cached descriptions of name.
func (d *Describer) Invalidate(ctx context.Context, name string) int {
	return d.cache.Invalidate(ctx, strings.ToLower(name)+"|")
}

// Run invalidates entries as the registry reports changes, until ctx is
// done.
func (d *Describer) Run(ctx context.Context, events pubsub.Subscriber[dvar.ChangeEvent]) {
	ch := events.Subscribe(ctx)
	go func() {
		for ev := range ch {
			if ev.Type == pubsub.LatchedEvent {
				continue
			}
			if n := d.Invalidate(ctx, ev.Payload.Name); n > 0 {
				log.Debug(log.CatCache, "Invalidated domain description", "dvar", ev.Payload.Name, "type", ev.Type)
			}
		}
	}()
}

// Description is a full report on one variable.
type Description struct {
	Name     string
	Type     string
	Value    string
	Latched  string
	Reset    string
	Flags    string
	Modified bool
	Pending  bool
	Help     string
	Domain   string
}

// Describe reports on name.
func (s *Service) Describe(ctx context.Context, name string) (Description, error) {
	v := s.reg.Find(name)
	if v == nil {
		return Description{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return Description{
		Name:     v.Name(),
		Type:     v.Type().String(),
		Value:    v.DisplayableValue(),
		Latched:  v.DisplayableLatchedValue(),
		Reset:    v.DisplayableResetValue(),
		Flags:    v.Flags().String(),
		Modified: v.Modified(),
		Pending:  v.HasLatchedValue(),
		Help:     v.Description(),
		Domain:   s.describer.Domain(ctx, v),
	}, nil
}

// Describer returns the service's describer.
func (s *Service) Describer() *Describer { return s.describer }

// WatchDescriptions keeps the describer in sync with the registry until
// ctx is done.
func (s *Service) WatchDescriptions(ctx context.Context) {
	s.describer.Run(ctx, s.reg.Events())
}

// Markdown renders d as a markdown document.
func (d Description) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	if d.Help != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Help)
	}
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| type | `%s` |\n", d.Type)
	fmt.Fprintf(&b, "| value | `%s` |\n", d.Value)
	if d.Pending {
		fmt.Fprintf(&b, "| latched | `%s` |\n", d.Latched)
	}
	fmt.Fprintf(&b, "| reset | `%s` |\n", d.Reset)
	if d.Flags != "" {
		fmt.Fprintf(&b, "| flags | %s |\n", d.Flags)
	}
	fmt.Fprintf(&b, "| modified | %t |\n", d.Modified)
	if d.Domain != "" {
		fmt.Fprintf(&b, "\n## Domain\n\n```\n%s\n```\n", d.Domain)
	}
	return b.String()
}

package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/catalog"
	"github.com/Lumos-Labs-HQ/medseed/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultThreshold is the row count at which top-up leaves an entity alone.
const DefaultThreshold = 10

type Seeder struct {
	store    store.Store
	catalog  *catalog.Catalog
	params   Params
	src      Source
	now      func() time.Time
	log      zerolog.Logger
	registry []EntitySpec
	specs    map[Entity]EntitySpec
	graph    *DependencyGraph
}

type Option func(*Seeder)

func WithParams(p Params) Option {
	return func(s *Seeder) { s.params = p }
}

// WithSource makes generation reproducible.
func WithSource(src Source) Option {
	return func(s *Seeder) { s.src = src }
}

func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Seeder) { s.log = l }
}

// WithRegistry replaces the hospital entity set.
func WithRegistry(specs []EntitySpec) Option {
	return func(s *Seeder) { s.registry = specs }
}

// New builds a seeder and checks its entity graph. A cycle or dangling
// reference is reported as *ConfigurationError before anything is written.
func New(st store.Store, cat *catalog.Catalog, opts ...Option) (*Seeder, error) {
	s := &Seeder{
		store:    st,
		catalog:  cat,
		params:   DefaultParams(),
		now:      time.Now,
		log:      zerolog.Nop(),
		registry: Registry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cat == nil {
		return nil, &ConfigurationError{Reason: "no catalog loaded"}
	}
	if err := s.params.Validate(); err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}
	if s.src == nil {
		s.src = NewSource(0)
	}

	s.specs = make(map[Entity]EntitySpec, len(s.registry))
	s.graph = NewDependencyGraph()
	for _, spec := range s.registry {
		s.specs[spec.Name] = spec
		s.graph.AddEntity(spec.Name, spec.Dependencies()...)
	}
	if _, err := s.graph.InsertionOrder(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Seeder) Graph() *DependencyGraph {
	return s.graph
}

// Selection returns the graph a run covers. Top-up takes only plus its
// dependencies. Reset also takes everything that depends on a selected
// entity, since those rows reference the ones being cleared.
func (s *Seeder) Selection(mode Mode, only []Entity) (*DependencyGraph, error) {
	if len(only) == 0 {
		return s.graph, nil
	}
	sub, err := s.graph.Subgraph(only...)
	if err != nil {
		return nil, err
	}
	if mode != ModeReset {
		return sub, nil
	}

	for {
		names := s.graph.Dependents(sub.Entities()...)
		if len(names) == len(sub.Entities()) {
			return sub, nil
		}
		if sub, err = s.graph.Subgraph(names...); err != nil {
			return nil, err
		}
	}
}

// Plan returns the insertion and deletion order of a run.
func (s *Seeder) Plan(mode Mode, only []Entity) ([]Entity, []Entity, error) {
	sel, err := s.Selection(mode, only)
	if err != nil {
		return nil, nil, err
	}
	insert, err := sel.InsertionOrder()
	if err != nil {
		return nil, nil, err
	}
	del, err := sel.DeletionOrder()
	if err != nil {
		return nil, nil, err
	}
	return insert, del, nil
}

func (s *Seeder) Spec(e Entity) (EntitySpec, bool) {
	spec, ok := s.specs[e]
	return spec, ok
}

func normalize(opts Options) (Options, error) {
	switch opts.Mode {
	case "":
		opts.Mode = ModeTopUp
	case ModeTopUp, ModeReset:
	default:
		return opts, &ConfigurationError{Reason: fmt.Sprintf("unknown mode %q", opts.Mode)}
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return opts, nil
}

// counts merges overrides into the defaults and checks the catalog can
// back every requested row.
func (s *Seeder) counts(overrides map[Entity]int, order []Entity) (map[Entity]int, error) {
	counts := DefaultCounts(s.catalog)
	for e, n := range overrides {
		spec, ok := s.specs[e]
		if !ok {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown entity %s", e)}
		}
		if spec.Derived {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("%s rows are derived from their parents; their count cannot be set", e)}
		}
		if n < 0 {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("%s count %d cannot be negative", e, n)}
		}
		counts[e] = n
	}

	for _, e := range order {
		spec := s.specs[e]
		if spec.section == nil || counts[e] == 0 {
			continue
		}
		if name, size := spec.section(s.catalog); size == 0 {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("catalog section %s is empty but %d %s rows were requested", name, counts[e], e)}
		}
	}
	return counts, nil
}

// Seed runs every selected batch in dependency order. On a fatal error the
// summary of the batches run so far is returned with a *BatchError.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	opts, err := normalize(opts)
	if err != nil {
		return nil, err
	}

	sel, err := s.Selection(opts.Mode, opts.Only)
	if err != nil {
		return nil, err
	}
	order, err := sel.InsertionOrder()
	if err != nil {
		return nil, err
	}
	counts, err := s.counts(opts.Counts, order)
	if err != nil {
		return nil, err
	}

	tenant, err := ResolveTenant(ctx, s.store, opts.Tenant)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:  uuid.NewString(),
		Tenant: tenant,
		Mode:   opts.Mode,
		Order:  order,
	}
	log := s.log.With().
		Str("run_id", summary.RunID).
		Int64("tenant", tenant).
		Str("mode", string(opts.Mode)).
		Logger()
	log.Info().Int("entities", len(order)).Msg("seeding started")

	fail := func(e Entity, err error) (*Summary, error) {
		log.Error().Err(err).Str("entity", string(e)).Msg("batch failed")
		s.readTotals(ctx, summary, log)
		summary.Elapsed = time.Since(start)
		return summary, &BatchError{Entity: e, Tenant: tenant, Mode: opts.Mode, Err: err}
	}

	cleared := make(map[Entity]int64)
	before := make(map[Entity]int64)
	if opts.Mode == ModeReset {
		del, err := sel.DeletionOrder()
		if err != nil {
			return nil, err
		}
		for _, e := range del {
			if before[e], err = s.store.Count(ctx, s.specs[e].Table, tenant); err != nil {
				return fail(e, fmt.Errorf("failed to count %s: %w", s.specs[e].Table, err))
			}
			n, err := s.store.DeleteTenant(ctx, s.specs[e].Table, tenant)
			if err != nil {
				return fail(e, fmt.Errorf("failed to clear %s: %w", s.specs[e].Table, err))
			}
			cleared[e] = n
			log.Debug().Str("entity", string(e)).Int64("deleted", n).Msg("cleared")
		}
	}

	rc := NewRunContext(tenant)
	producer := NewProducer(s.catalog, s.params, s.src, s.now(), tenant)
	for _, e := range order {
		b := &batch{
			spec:     s.specs[e],
			count:    counts[e],
			producer: producer,
			rc:       rc,
			log:      log.With().Str("entity", string(e)).Logger(),
		}
		report, err := s.runBatch(ctx, b, opts)
		if opts.Mode == ModeReset {
			report.Existing = before[e]
			report.Deleted += cleared[e]
		}
		summary.Batches = append(summary.Batches, report)
		if err != nil {
			return fail(e, err)
		}
	}

	s.readTotals(ctx, summary, log)
	summary.Elapsed = time.Since(start)
	log.Info().Int("inserted", summary.Inserted()).Dur("took", summary.Elapsed).Msg("seeding finished")
	return summary, nil
}

// readTotals fills in per-entity row counts after the run.
func (s *Seeder) readTotals(ctx context.Context, summary *Summary, log zerolog.Logger) {
	for _, b := range summary.Batches {
		n, err := s.store.Count(ctx, b.Table, summary.Tenant)
		if err != nil {
			log.Warn().Err(err).Str("entity", string(b.Entity)).Msg("failed to read back row count")
			continue
		}
		b.Total = n
	}
}

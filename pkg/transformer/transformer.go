package transformer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// Config identifies the connector and tenant stamped on every entity.
type Config struct {
	ConnectorName string
	TenantID      string
}

// Transformer dispatches rows to mappers and assembles entities.
// It is safe for concurrent use once constructed.
type Transformer struct {
	cfg      Config
	registry *Registry
	logger   *slog.Logger
}

// Option configures a Transformer at construction time.
type Option func(*Transformer)

// WithRegistry replaces the built-in registry. The registry is copied.
func WithRegistry(r *Registry) Option {
	return func(t *Transformer) {
		t.registry = r.Clone()
	}
}

// WithMapper registers or overrides a single tag. This is the extension point
// for specializing the mapping to another source dialect.
func WithMapper(typename string, m Mapper) Option {
	return func(t *Transformer) {
		t.registry.Register(typename, m)
	}
}

// WithLogger sets the logger used for dropped rows.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Transformer holding the built-in registry, then applies opts in order.
func New(cfg Config, opts ...Option) *Transformer {
	t := &Transformer{
		cfg:      cfg,
		registry: DefaultRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the transformer's connector configuration.
func (t *Transformer) Config() Config {
	return t.cfg
}

// Registry returns a copy of the active registry.
func (t *Transformer) Registry() *Registry {
	return t.registry.Clone()
}

type callOptions struct {
	registry *Registry
}

// CallOption adjusts a single Transform call.
type CallOption func(*callOptions)

// WithCallRegistry uses r for this call only. The transformer's own registry
// is left untouched.
func WithCallRegistry(r *Registry) CallOption {
	return func(o *callOptions) {
		o.registry = r
	}
}

// Transform maps one row into an entity.
//
// The row is copied and the connection identifiers from p are injected under
// KeyConnectionQualifiedName and KeyConnectionName so mappers read them like
// any other field. Provenance is merged last into both buckets, so it wins
// on key collisions. Failures are logged with the row and returned in the
// Result; they never panic.
func (t *Transformer) Transform(typename string, row core.Row, p core.Provenance, opts ...CallOption) Result {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	registry := t.registry
	if co.registry != nil {
		registry = co.registry
	}

	tag := core.NormalizeVariant(typename)
	res := Result{TypeName: tag}

	data := row.Clone()
	data[KeyConnectionQualifiedName] = nilIfEmpty(p.ConnectionQualifiedName)
	data[KeyConnectionName] = nilIfEmpty(p.ConnectionName)

	mapper, ok := registry.Lookup(string(tag))
	if !ok {
		res.Err = &UnknownTypeError{TypeName: tag, Available: registry.Tags()}
		t.logger.Error("unknown typename", slog.String("typename", string(tag)))
		return res
	}

	attrs, err := invoke(mapper, data)
	var degraded *DegradedFieldsError
	if errors.As(err, &degraded) {
		res.Degraded = degraded.Fields
		t.logger.Warn("fields fell back to defaults",
			slog.String("typename", string(tag)),
			slog.String("error", degraded.Error()),
			slog.Any("data", map[string]any(data)),
		)
		err = nil
	}
	if err != nil {
		res.Err = &MappingError{TypeName: tag, Row: data, Err: err}
		t.logger.Error("error transforming entity",
			slog.String("typename", string(tag)),
			slog.String("error", err.Error()),
			slog.Any("data", map[string]any(data)),
		)
		return res
	}

	attrs.Merge(Enrich(t.cfg, p))

	res.Entity = &core.Entity{
		TypeName:         tag,
		Attributes:       attrs.Attributes,
		CustomAttributes: attrs.CustomAttributes,
		Status:           core.StatusActive,
	}
	return res
}

// TransformRow is Transform reduced to entity-or-nil.
func (t *Transformer) TransformRow(typename string, row core.Row, p core.Provenance, opts ...CallOption) *core.Entity {
	return t.Transform(typename, row, p, opts...).Entity
}

// TransformBatch transforms every row, skipping failures.
func (t *Transformer) TransformBatch(typename string, rows []core.Row, p core.Provenance) ([]*core.Entity, BatchSummary) {
	var summary BatchSummary
	entities := make([]*core.Entity, 0, len(rows))
	for _, row := range rows {
		res := t.Transform(typename, row, p)
		summary.Add(res)
		if res.OK() {
			entities = append(entities, res.Entity)
		}
	}
	if summary.Dropped() > 0 {
		t.logger.Warn("dropped rows during transform",
			slog.String("typename", string(core.NormalizeVariant(typename))),
			slog.Int("dropped", summary.Dropped()),
			slog.Int("total", summary.Total),
		)
	}
	return entities, summary
}

// invoke runs the mapper, converting a panic into an error.
func invoke(m Mapper, row core.Row) (attrs core.AttributeSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mapper panic: %v", r)
		}
	}()
	attrs, err = m.Attributes(row)
	var degraded *DegradedFieldsError
	if err != nil && !errors.As(err, &degraded) {
		return core.AttributeSet{}, err
	}
	if attrs.Attributes == nil {
		attrs.Attributes = core.Attributes{}
	}
	if attrs.CustomAttributes == nil {
		attrs.CustomAttributes = core.Attributes{}
	}
	return attrs, err
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

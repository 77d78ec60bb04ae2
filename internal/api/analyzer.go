package api

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/example/relcheck/internal/catalog"
	"github.com/example/relcheck/internal/sql/parser"
	"github.com/example/relcheck/internal/sql/types"
	"github.com/example/relcheck/internal/sql/validator"
)

// DefaultCacheSize is the number of parsed scripts kept when Options.CacheSize
// is zero.
const DefaultCacheSize = 128

// Options configures an Analyzer. The zero value is usable: it logs nothing
// and registers metrics on a private registry.
type Options struct {
	Logger     *zap.Logger
	Registerer prometheus.Registerer
	CacheSize  int
}

// Analyzer parses and type-checks scripts. It is safe for concurrent use;
// every call to Check runs against its own symbol table.
type Analyzer struct {
	logger  *zap.Logger
	cache   *lru.Cache[string, *parser.SequenceStmt]
	metrics *metrics
}

// Result is the outcome of a successful check.
type Result struct {
	// Relation is the result of the last statement.
	Relation validator.Relation
	// Tables lists the relations created by the script, by name.
	Tables []catalog.Binding
	// Statements is the number of statements checked.
	Statements int
	// Cached reports whether the parsed script came from the cache.
	Cached bool
}

// New builds an Analyzer from opts.
func New(opts Options) (*Analyzer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size < 0 {
		return nil, errors.Errorf("api: invalid cache size %d", size)
	}
	cache, err := lru.New[string, *parser.SequenceStmt](size)
	if err != nil {
		return nil, errors.Wrap(err, "api: create parse cache")
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Analyzer{logger: logger, cache: cache, metrics: m}, nil
}

// Check parses src as a statement script and type-checks it against a fresh
// symbol table. Errors keep their type for errors.As; type errors are
// wrapped with the number of the failing statement.
func (a *Analyzer) Check(src string) (*Result, error) {
	start := time.Now()
	result, err := a.check(src)
	a.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := types.Kind(err)
		if errors.Is(err, errParse) {
			kind = kindParse
		}
		a.metrics.checks.WithLabelValues(kind).Inc()
		a.logger.Debug("check failed", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}
	a.metrics.checks.WithLabelValues(kindOK).Inc()
	a.logger.Debug("check succeeded",
		zap.String("relation", result.Relation.Name),
		zap.Int("columns", result.Relation.Schema.Len()),
		zap.Int("statements", result.Statements),
		zap.Bool("cached", result.Cached),
	)
	return result, nil
}

func (a *Analyzer) check(src string) (*Result, error) {
	seq, cached, err := a.parse(src)
	if err != nil {
		return nil, err
	}
	if len(seq.Statements) == 0 {
		return nil, validator.ErrEmptySequence
	}

	// Same walk as validator.CheckStatement on a sequence, kept here so errors
	// carry the statement number.
	st := catalog.NewSymbolTable()
	var last validator.Relation
	for i, stmt := range seq.Statements {
		rel, err := validator.CheckStatement(st, stmt)
		if err != nil {
			return nil, errors.Wrapf(err, "statement %d", i+1)
		}
		fields := []zap.Field{
			zap.Int("index", i+1),
			zap.String("relation", rel.Name),
			zap.Stringer("schema", rel.Schema),
		}
		if q, ok := stmt.(*parser.QueryStmt); ok {
			fields = append(fields, zap.String("query", parser.FormatQuery(q.Query)))
		}
		a.logger.Debug("statement checked", fields...)
		last = rel
	}
	return &Result{
		Relation:   last,
		Tables:     st.Bindings(),
		Statements: len(seq.Statements),
		Cached:     cached,
	}, nil
}

// errParse marks parse failures so they can be told apart from type errors.
var errParse = errors.New("parse error")

type parseError struct {
	err error
}

func (e *parseError) Error() string { return e.err.Error() }

func (e *parseError) Unwrap() error { return e.err }

func (e *parseError) Is(target error) bool { return target == errParse }

// IsParseError reports whether err came from the parser rather than the
// type checker.
func IsParseError(err error) bool {
	return errors.Is(err, errParse)
}

func (a *Analyzer) parse(src string) (*parser.SequenceStmt, bool, error) {
	if seq, ok := a.cache.Get(src); ok {
		a.metrics.cacheHits.Inc()
		return seq, true, nil
	}
	a.metrics.cacheMisses.Inc()
	seq, err := parser.ParseScript(src)
	if err != nil {
		return nil, false, &parseError{err: err}
	}
	a.cache.Add(src, seq)
	return seq, false, nil
}

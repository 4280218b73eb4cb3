package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultFloorYear is the oldest year probed.
const DefaultFloorYear = 2015

var (
	// ErrNotFound is returned when no dataset exists for any probed year.
	ErrNotFound = errors.New("dataset not found")
	// ErrProbeFailed wraps a transport failure during an existence check.
	ErrProbeFailed = errors.New("dataset probe failed")
)

// Source is the storage a yearly dataset lives in.
type Source interface {
	// Exists reports whether the named resource can be retrieved.
	Exists(ctx context.Context, name string) (bool, error)
	// Open retrieves the resource body.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Naming builds resource names of the form <prefix><separator><year><ext>.
type Naming struct {
	Prefix    string
	Separator string
	Ext       string
}

// Name returns the resource name for a year.
func (n Naming) Name(year int) string {
	ext := n.Ext
	if ext == "" {
		ext = ".xlsx"
	}
	return fmt.Sprintf("%s%s%d%s", n.Prefix, n.Separator, year, ext)
}

// Resolution is the newest dataset found.
type Resolution struct {
	Year int
	Name string
}

type Options struct {
	floor   int
	now     func() time.Time
	limiter *rate.Limiter
	logger  *zap.Logger
}

type Option func(*Options)

// WithFloorYear sets the oldest year probed.
func WithFloorYear(year int) Option {
	return func(o *Options) { o.floor = year }
}

// WithClock replaces the wall clock used to pick the first probed year.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.now = now }
}

// WithProbeRate throttles existence checks to perSecond probes. Zero disables throttling.
func WithProbeRate(perSecond float64) Option {
	return func(o *Options) {
		if perSecond <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// Resolver finds the newest yearly dataset of one naming scheme.
type Resolver struct {
	source  Source
	naming  Naming
	floor   int
	now     func() time.Time
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewResolver creates a Resolver. It panics when source is nil.
func NewResolver(source Source, naming Naming, opts ...Option) *Resolver {
	if source == nil {
		panic("source must not be nil")
	}
	options := &Options{
		floor:  DefaultFloorYear,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}

	return &Resolver{
		source:  source,
		naming:  naming,
		floor:   options.floor,
		now:     options.now,
		limiter: options.limiter,
		logger:  options.logger.Named("resolver"),
	}
}

// Naming returns the naming scheme probed by r.
func (r *Resolver) Naming() Naming {
	return r.naming
}

// Resolve probes from the current calendar year down to the floor year, one year at a time,
// and returns the first year whose resource exists. It returns ErrNotFound when none does.
func (r *Resolver) Resolve(ctx context.Context) (Resolution, error) {
	current := r.now().Year()
	for year := current; year >= r.floor; year-- {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return Resolution{}, err
			}
		}

		name := r.naming.Name(year)
		ok, err := r.source.Exists(ctx, name)
		if err != nil {
			return Resolution{}, fmt.Errorf("%w: %s: %v", ErrProbeFailed, name, err)
		}
		if ok {
			r.logger.Debug("dataset resolved", zap.String("name", name), zap.Int("year", year))
			return Resolution{Year: year, Name: name}, nil
		}
	}

	r.logger.Debug("no dataset found",
		zap.String("prefix", r.naming.Prefix),
		zap.Int("from", current),
		zap.Int("floor", r.floor))
	return Resolution{}, fmt.Errorf("%w: %s%s{%d..%d}", ErrNotFound, r.naming.Prefix, r.naming.Separator, current, r.floor)
}

// Open retrieves the dataset body of a resolved year.
func (r *Resolver) Open(ctx context.Context, res Resolution) (io.ReadCloser, error) {
	name := res.Name
	if name == "" {
		name = r.naming.Name(res.Year)
	}
	return r.source.Open(ctx, name)
}

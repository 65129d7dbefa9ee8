package generator

import (
	"log/slog"
	"math/rand/v2"

	"github.com/syssam/xorgen"
)

// DefaultSeed seeds generators constructed without WithSeed, so that
// unconfigured runs are reproducible.
const DefaultSeed uint64 = 1

// DefaultDelimiter separates hierarchy path segments.
const DefaultDelimiter = "/"

// Option configures a generator.
type Option func(*options) error

type options struct {
	seed      uint64
	logger    *slog.Logger
	skipEmpty bool
	fetchSize int
	maxRows   int64
	delimiter string
	start     int64
	params    map[string]any
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		seed:      DefaultSeed,
		maxRows:   -1,
		delimiter: DefaultDelimiter,
		start:     1,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// WithSeed sets the seed of the generator's random source.
func WithSeed(seed uint64) Option {
	return func(o *options) error {
		o.seed = seed
		return nil
	}
}

// WithLogger sets the logger used to report runtime failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}

// WithSkipEmptyOwners makes an owner generator step over zero-size range
// nodes instead of spending one null emission per owner id.
func WithSkipEmptyOwners() Option {
	return func(o *options) error {
		o.skipEmpty = true
		return nil
	}
}

// WithFetchSize sets the number of rows fetched per round trip. On
// PostgreSQL a positive fetch size switches the query generator to a
// server-side cursor.
func WithFetchSize(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return xorgen.NewConfigError("fetch size", n, "must not be negative")
		}
		o.fetchSize = n
		return nil
	}
}

// WithMaxRows caps the number of rows a query generator yields. A
// negative value means unbounded.
func WithMaxRows(n int64) Option {
	return func(o *options) error {
		o.maxRows = n
		return nil
	}
}

// WithDelimiter sets the hierarchy path delimiter.
func WithDelimiter(d string) Option {
	return func(o *options) error {
		if d == "" {
			return xorgen.NewConfigError("delimiter", nil, "must not be empty")
		}
		o.delimiter = d
		return nil
	}
}

// WithStart sets the first id handed out by a hierarchy generator.
func WithStart(start int64) Option {
	return func(o *options) error {
		o.start = start
		return nil
	}
}

// WithParams sets the data passed to a query template.
func WithParams(params map[string]any) Option {
	return func(o *options) error {
		o.params = params
		return nil
	}
}

// newRand returns a deterministic source for seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SqliteOptions)(nil)

// SqliteOptions configures the association store.
type SqliteOptions struct {
	Path         string        `json:"path" mapstructure:"path"`
	BusyTimeout  time.Duration `json:"busy-timeout" mapstructure:"busy-timeout"`
	MaxOpenConns int           `json:"max-open-conns" mapstructure:"max-open-conns"`
}

func NewSqliteOptions() *SqliteOptions {
	return &SqliteOptions{
		Path:         "association.db",
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 25,
	}
}

func (o *SqliteOptions) Validate() []error {
	errs := []error{}

	if o.Path == "" {
		errs = append(errs, errors.New("--sqlite.path is required"))
	}
	if o.MaxOpenConns < 1 {
		errs = append(errs, errors.New("--sqlite.max-open-conns must be positive"))
	}

	return errs
}

func (o *SqliteOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Path, "sqlite.path", o.Path, "Path of the SQLite database file.")
	fs.DurationVar(&o.BusyTimeout, "sqlite.busy-timeout", o.BusyTimeout, "SQLite busy timeout.")
	fs.IntVar(&o.MaxOpenConns, "sqlite.max-open-conns", o.MaxOpenConns, "Maximum open connections in the pool.")
}

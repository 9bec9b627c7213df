package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RedisOptions)(nil)

// RedisOptions configures the secondary stream sink.
type RedisOptions struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`

	// Stream is the Redis stream lifecycle messages are appended to.
	Stream string `json:"stream" mapstructure:"stream"`

	// MaxLen approximately caps the stream length. Zero disables trimming.
	MaxLen int64 `json:"max-len" mapstructure:"max-len"`

	DialTimeout  time.Duration `json:"dial-timeout" mapstructure:"dial-timeout"`
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
}

func NewRedisOptions() *RedisOptions {
	return &RedisOptions{
		Addr:         "localhost:6379",
		Stream:       "association-events",
		MaxLen:       100000,
		DialTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func (o *RedisOptions) Validate() []error {
	errs := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	if o.Stream == "" {
		errs = append(errs, errors.New("--redis.stream is required"))
	}

	return errs
}

func (o *RedisOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, "redis.addr", o.Addr, "Redis server address (host:port).")
	fs.StringVar(&o.Password, "redis.password", o.Password, "Redis password.")
	fs.IntVar(&o.DB, "redis.db", o.DB, "Redis database number.")
	fs.StringVar(&o.Stream, "redis.stream", o.Stream, "Redis stream receiving lifecycle messages.")
	fs.Int64Var(&o.MaxLen, "redis.max-len", o.MaxLen, "Approximate maximum stream length (0 disables trimming).")
	fs.DurationVar(&o.DialTimeout, "redis.dial-timeout", o.DialTimeout, "Redis dial timeout.")
	fs.DurationVar(&o.WriteTimeout, "redis.write-timeout", o.WriteTimeout, "Redis write timeout.")
}

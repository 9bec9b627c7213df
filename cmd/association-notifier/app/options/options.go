package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/association/internal/association"
	"github.com/autopeer-io/association/pkg/app"
	"github.com/autopeer-io/association/pkg/log"
	"github.com/autopeer-io/association/pkg/options"
)

type NotifierOptions struct {
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	RedisOptions   *options.RedisOptions   `json:"redis" mapstructure:"redis"`
	SqliteOptions  *options.SqliteOptions  `json:"sqlite" mapstructure:"sqlite"`
	PeerOptions    *options.PeerOptions    `json:"peer" mapstructure:"peer"`
	FeatureOptions *options.FeatureOptions `json:"feature" mapstructure:"feature"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*NotifierOptions)(nil)

func NewNotifierOptions() *NotifierOptions {
	return &NotifierOptions{
		HttpOptions:    options.NewHttpOptions(),
		MqttOptions:    options.NewMqttOptions(),
		S3Options:      options.NewS3Options(),
		RedisOptions:   options.NewRedisOptions(),
		SqliteOptions:  options.NewSqliteOptions(),
		PeerOptions:    options.NewPeerOptions(),
		FeatureOptions: options.NewFeatureOptions(),
		Log:            log.NewOptions(),
	}
}

func (o *NotifierOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.SqliteOptions.AddFlags(fss.FlagSet("sqlite"))
	o.PeerOptions.AddFlags(fss.FlagSet("peer"))
	o.FeatureOptions.AddFlags(fss.FlagSet("feature"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *NotifierOptions) Complete() error {
	return nil
}

func (o *NotifierOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.RedisOptions.Validate()...)
	errs = append(errs, o.SqliteOptions.Validate()...)
	errs = append(errs, o.PeerOptions.Validate()...)
	errs = append(errs, o.FeatureOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *NotifierOptions) Config() (*association.Config, error) {
	return &association.Config{
		HttpOptions:    o.HttpOptions,
		MqttOptions:    o.MqttOptions,
		S3Options:      o.S3Options,
		RedisOptions:   o.RedisOptions,
		SqliteOptions:  o.SqliteOptions,
		PeerOptions:    o.PeerOptions,
		FeatureOptions: o.FeatureOptions,
	}, nil
}

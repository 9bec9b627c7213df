package options

import (
	"github.com/spf13/pflag"
)

var _ IOptions = (*FeatureOptions)(nil)

// FeatureOptions toggles optional notification behavior. Values are read once at startup.
type FeatureOptions struct {
	// ConfigPush enables the config-push notification on disassociation.
	ConfigPush bool `json:"config-push" mapstructure:"config-push"`
}

func NewFeatureOptions() *FeatureOptions {
	return &FeatureOptions{}
}

func (o *FeatureOptions) Validate() []error {
	return nil
}

func (o *FeatureOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.ConfigPush, "feature.config-push", o.ConfigPush, "Push a device config message when an association is disassociated.")
}

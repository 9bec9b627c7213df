package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*PeerOptions)(nil)

// PeerOptions configures the REST peers called on disassociation.
type PeerOptions struct {
	// AuthBaseURL is the device-authentication service base URL.
	AuthBaseURL string `json:"auth-base-url" mapstructure:"auth-base-url"`

	// DeviceMessageBaseURL is the device-message (config push) service base URL.
	DeviceMessageBaseURL string `json:"device-message-base-url" mapstructure:"device-message-base-url"`

	// Timeout bounds every peer call.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewPeerOptions() *PeerOptions {
	return &PeerOptions{
		AuthBaseURL:          "http://localhost:8081",
		DeviceMessageBaseURL: "http://localhost:8082",
		Timeout:              10 * time.Second,
	}
}

func (o *PeerOptions) Validate() []error {
	errs := []error{}

	for flag, raw := range map[string]string{
		"--peer.auth-base-url":           o.AuthBaseURL,
		"--peer.device-message-base-url": o.DeviceMessageBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", flag, raw))
		}
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--peer.timeout must be positive"))
	}

	return errs
}

func (o *PeerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.AuthBaseURL, "peer.auth-base-url", o.AuthBaseURL, "Base URL of the device-authentication service.")
	fs.StringVar(&o.DeviceMessageBaseURL, "peer.device-message-base-url", o.DeviceMessageBaseURL, "Base URL of the device-message service.")
	fs.DurationVar(&o.Timeout, "peer.timeout", o.Timeout, "Timeout of a single peer call.")
}

package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	assert.NoError(t, NewNotifierOptions().Validate())
}

func TestValidateAggregatesErrors(t *testing.T) {
	o := NewNotifierOptions()
	o.HttpOptions.Addr = "no-port"
	o.SqliteOptions.Path = ""
	o.Log.Level = "chatty"

	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-port")
	assert.Contains(t, err.Error(), "--sqlite.path")
	assert.Contains(t, err.Error(), "--log.level")
}

func TestFlagsAreGrouped(t *testing.T) {
	fss := NewNotifierOptions().Flags()

	assert.Equal(t, []string{"http", "mqtt", "s3", "redis", "sqlite", "peer", "feature", "log"}, fss.Order)
	assert.NotNil(t, fss.FlagSet("feature").Lookup("feature.config-push"))
}

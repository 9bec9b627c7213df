package app

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/autopeer-io/association/pkg/log"
)

func TestReloadLogLevel(t *testing.T) {
	t.Cleanup(func() { _ = log.SetLevel("info") })

	v := viper.New()
	v.Set("log.level", "error")
	reloadLogLevel(v)
	assert.Equal(t, "error", log.Level())

	v.Set("log.level", "chatty")
	reloadLogLevel(v)
	assert.Equal(t, "error", log.Level())
}

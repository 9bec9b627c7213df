package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("0.0.0.0:8443"))
	assert.NoError(t, ValidateAddress("redis.local:6379"))
	assert.NoError(t, ValidateAddress(":9000"))
	assert.Error(t, ValidateAddress("localhost"))
	assert.Error(t, ValidateAddress("localhost:0"))
	assert.Error(t, ValidateAddress("local_host:80"))
}

func TestDefaultsValidate(t *testing.T) {
	groups := []IOptions{
		NewMqttOptions(),
		NewHttpOptions(),
		NewS3Options(),
		NewRedisOptions(),
		NewSqliteOptions(),
		NewPeerOptions(),
		NewFeatureOptions(),
	}
	for _, g := range groups {
		assert.Empty(t, g.Validate(), "%T", g)
	}
}

func TestPeerOptionsRejectsRelativeURL(t *testing.T) {
	o := NewPeerOptions()
	o.AuthBaseURL = "/device"
	assert.Len(t, o.Validate(), 1)
}

func TestMqttOptionsRejectsBadQoS(t *testing.T) {
	o := NewMqttOptions()
	o.QoS = 3
	assert.Len(t, o.Validate(), 1)
}

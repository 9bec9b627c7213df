package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderBuild(t *testing.T) {
	b := NewBuilder("/association/v1/")
	assert.Equal(t, "association/v1", b.Root())
	assert.Equal(t, "association/v1/vin/HU-1", b.Build("vin", "HU-1"))
	assert.Equal(t, "association/v1/vin/a_b_c_", b.Build("vin", "a/b+c#"))
	assert.Equal(t, "vin/x", NewBuilder("").Build("vin", "x"))
}

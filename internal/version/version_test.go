package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent(t *testing.T) {
	info := Current("rule-cascade-v1.0")
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, "rule-cascade-v1.0", info.Model)
	assert.Contains(t, String(), Version)
}

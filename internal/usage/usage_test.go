package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitFor(t *testing.T) {
	assert.Equal(t, 30, LimitFor("free"))
	assert.Equal(t, 500, LimitFor("pro"))
	assert.Equal(t, -1, LimitFor("business"))

	// Unknown tiers fall back to the free cap
	assert.Equal(t, 30, LimitFor(""))
	assert.Equal(t, 30, LimitFor("legacy-plan"))
}

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollPosition_Ratio(t *testing.T) {
	assert.InDelta(t, 0.5, ScrollPosition{Offset: 100, Viewport: 400, Height: 1000}.Ratio(), 1e-9)
	assert.Equal(t, 0.0, ScrollPosition{Offset: 0, Viewport: 400, Height: 400}.Ratio())
	assert.Equal(t, 0.0, ScrollPosition{}.Ratio())
}

func TestShouldLoad(t *testing.T) {
	deep := ScrollPosition{Offset: 500, Viewport: 400, Height: 1000}
	shallow := ScrollPosition{Offset: 300, Viewport: 400, Height: 1000}
	edge := ScrollPosition{Offset: 400, Viewport: 400, Height: 1000}

	assert.True(t, ShouldLoad(deep, true, false))
	assert.False(t, ShouldLoad(shallow, true, false))
	assert.False(t, ShouldLoad(edge, true, false), "threshold is exclusive")
	assert.False(t, ShouldLoad(deep, false, false))
	assert.False(t, ShouldLoad(deep, true, true))
}

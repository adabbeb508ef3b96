package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStats exercises the statistical helpers, empty-slice conventions
// included.
func TestStats(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.Equal(t, 5.0, Mean(values))
	assert.InDelta(t, 2.138, Stdev(values), 0.001)
	assert.Equal(t, 40.0, Sum(values))
	assert.Equal(t, 9.0, MaxFloat(values))
	assert.Equal(t, 2.0, MinFloat(values))
	assert.Equal(t, 4.5, Median(values))

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Stdev([]float64{3}))
	assert.Equal(t, math.Inf(-1), MaxFloat(nil))
	assert.Equal(t, math.Inf(1), MinFloat(nil))
	assert.True(t, math.IsNaN(Median(nil)))
}

// TestMedianDoesNotMutate verifies Median sorts a copy, not the caller's
// slice.
func TestMedianDoesNotMutate(t *testing.T) {
	values := []float64{3, 1, 2}
	assert.Equal(t, 2.0, Median(values))
	assert.Equal(t, []float64{3, 1, 2}, values)
}

// TestStatFunctionsByName verifies every aggregation is reachable through
// the name map.
func TestStatFunctionsByName(t *testing.T) {
	values := []float64{1, 2, 3}
	assert.Equal(t, 2.0, StatFunctions["mean"](values))
	assert.Equal(t, 6.0, StatFunctions["sum"](values))
	assert.Equal(t, 3.0, StatFunctions["max"](values))
	assert.Equal(t, 1.0, StatFunctions["min"](values))
	assert.Equal(t, 2.0, StatFunctions["median"](values))
	assert.Contains(t, StatFunctions, "stdev")
}

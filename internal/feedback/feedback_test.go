package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRatingNoFeedback(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 0.0, AverageRating([]int{}))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 4.0, AverageRating([]int{5, 3, 4}))
	assert.Equal(t, 5.0, AverageRating([]int{5}))
	assert.InDelta(t, 3.6666, AverageRating([]int{5, 3, 3}), 0.001)
}

package typing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWordsPerMinute(t *testing.T) {
	assert.Equal(t, 0, WordsPerMinute(50, 0))
	assert.Equal(t, 0, WordsPerMinute(0, time.Minute))
	assert.Equal(t, 10, WordsPerMinute(50, time.Minute))
	assert.Equal(t, 20, WordsPerMinute(50, 30*time.Second))
}

func TestAccuracyRange(t *testing.T) {
	assert.Equal(t, 100, Accuracy(0, 0))
	assert.Equal(t, 0, Accuracy(0, 7))
	assert.Equal(t, 67, Accuracy(2, 3))
	for total := 1; total < 20; total++ {
		for correct := 0; correct <= total; correct++ {
			acc := Accuracy(correct, total)
			assert.GreaterOrEqual(t, acc, 0)
			assert.LessOrEqual(t, acc, 100)
		}
	}
}

package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForCoversRangeExactlyOnce(t *testing.T) {
	const n = 10007
	var hits [n]int32
	For(n, 64, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i := range hits {
		if hits[i] != 1 {
			t.Fatalf("index %d visited %d times", i, hits[i])
		}
	}
}

func TestForSmallRangeRunsInline(t *testing.T) {
	var total int64
	For(10, 64, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			total += int64(i)
		}
	})
	assert.Equal(t, int64(45), total)
}

func TestForZeroAndNegative(t *testing.T) {
	called := false
	For(0, 1, func(lo, hi int) { called = true })
	For(-3, 1, func(lo, hi int) { called = true })
	assert.False(t, called)
}

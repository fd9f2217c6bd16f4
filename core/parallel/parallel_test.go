package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	for _, items := range []int{0, 1, 7, 100, 1001} {
		hits := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("items=%d: index %d visited %d times", items, i, h)
			}
		}
	}
}

func TestParallelizeWorkersBoundsRanges(t *testing.T) {
	var calls int32
	ParallelizeWorkers(10, 3, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start >= end {
			t.Errorf("empty range [%d, %d)", start, end)
		}
	})
	if calls != 3 {
		t.Errorf("Expected 3 ranges, got %d", calls)
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var ranges [][2]int
	ParallelizeWithThreshold(5, 10, func(start, end int) {
		ranges = append(ranges, [2]int{start, end})
	})
	if len(ranges) != 1 || ranges[0] != [2]int{0, 5} {
		t.Errorf("Expected a single [0,5) range, got %v", ranges)
	}
}

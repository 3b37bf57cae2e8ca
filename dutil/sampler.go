package dutil

import (
	"fmt"
	"math/rand"
)

// Sampler generates the record visit order for one epoch.
type Sampler interface {
	Sample() []int
	BatchSize() int
}

// BatchSampler draws index batches over n records, optionally shuffled and
// optionally dropping a trailing partial batch.
type BatchSampler struct {
	n         int
	batchSize int
	dropLast  bool
	shuffle   bool
}

// NewBatchSampler creates a BatchSampler.
func NewBatchSampler(n, batchSize int, dropLast, shuffle bool) (*BatchSampler, error) {
	if n < 1 {
		return nil, fmt.Errorf("dutil: dataset size must be >= 1, got %v", n)
	}
	if batchSize < 1 || batchSize > n {
		return nil, fmt.Errorf("dutil: batch size must be in range [1, %v], got %v", n, batchSize)
	}

	return &BatchSampler{
		n:         n,
		batchSize: batchSize,
		dropLast:  dropLast,
		shuffle:   shuffle,
	}, nil
}

// Sample implements Sampler. Every call starts a fresh epoch order.
func (s *BatchSampler) Sample() []int {
	var indexes []int
	if s.shuffle {
		indexes = rand.Perm(s.n)
	} else {
		indexes = make([]int, s.n)
		for i := range indexes {
			indexes[i] = i
		}
	}

	if s.dropLast {
		indexes = indexes[:s.BatchCount()*s.batchSize]
	}

	return indexes
}

// BatchSize implements Sampler.
func (s *BatchSampler) BatchSize() int {
	return s.batchSize
}

// BatchCount returns the number of batches per epoch.
func (s *BatchSampler) BatchCount() int {
	if s.dropLast {
		return s.n / s.batchSize
	}

	return (s.n + s.batchSize - 1) / s.batchSize
}

package dutil

import (
	"fmt"
	"reflect"
)

// DataLoader iterates a Dataset in sampler order, yielding typed batch
// slices. Records are loaded lazily, one batch at a time. Reset starts a
// fresh epoch with a newly sampled order.
type DataLoader struct {
	ds      Dataset
	sampler Sampler
	indexes []int
	pos     int
}

// NewDataLoader creates a DataLoader.
func NewDataLoader(ds Dataset, s Sampler) (*DataLoader, error) {
	if ds == nil {
		return nil, fmt.Errorf("dutil: nil dataset")
	}
	if s == nil {
		return nil, fmt.Errorf("dutil: nil sampler")
	}

	dl := &DataLoader{ds: ds, sampler: s}
	dl.Reset()

	return dl, nil
}

// HasNext reports whether another batch remains in the current epoch.
func (dl *DataLoader) HasNext() bool {
	return dl.pos < len(dl.indexes)
}

// Next returns the next batch as a slice of the dataset's DType elements.
func (dl *DataLoader) Next() (interface{}, error) {
	if !dl.HasNext() {
		return nil, fmt.Errorf("dutil: epoch exhausted, call Reset to restart")
	}

	end := dl.pos + dl.sampler.BatchSize()
	if end > len(dl.indexes) {
		end = len(dl.indexes)
	}

	batch := reflect.MakeSlice(reflect.SliceOf(dl.ds.DType()), 0, end-dl.pos)
	for _, idx := range dl.indexes[dl.pos:end] {
		item, err := dl.ds.Item(idx)
		if err != nil {
			return nil, err
		}
		batch = reflect.Append(batch, reflect.ValueOf(item))
	}
	dl.pos = end

	return batch.Interface(), nil
}

// Reset starts a new epoch.
func (dl *DataLoader) Reset() {
	dl.indexes = dl.sampler.Sample()
	dl.pos = 0
}

// Package dutil provides a minimal map-style dataset and batching dataloader
// for training loops.
package dutil

import "reflect"

// Dataset is an indexed record source.
type Dataset interface {
	// Item returns the record at idx. The concrete type is DType.
	Item(idx int) (interface{}, error)
	// Len returns the number of records.
	Len() int
	// DType returns the concrete element type yielded by Item.
	DType() reflect.Type
}

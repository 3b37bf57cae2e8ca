package dutil_test

import (
	"reflect"
	"sort"
	"testing"

	"github.com/sugarme/elunet/dutil"
)

// intDataset is a fixed-size dataset yielding its own indexes, enough to
// observe loader ordering and batching.
type intDataset struct {
	n int
}

func (ds intDataset) Len() int {
	return ds.n
}

func (ds intDataset) Item(idx int) (interface{}, error) {
	return idx, nil
}

func (ds intDataset) DType() reflect.Type {
	return reflect.TypeOf(int(0))
}

func TestBatchSamplerValidation(t *testing.T) {
	if _, err := dutil.NewBatchSampler(0, 1, false, false); err == nil {
		t.Error("empty dataset accepted")
	}
	if _, err := dutil.NewBatchSampler(10, 0, false, false); err == nil {
		t.Error("zero batch size accepted")
	}
	if _, err := dutil.NewBatchSampler(10, 11, false, false); err == nil {
		t.Error("batch size beyond dataset size accepted")
	}
}

func TestBatchSamplerOrder(t *testing.T) {
	s, err := dutil.NewBatchSampler(7, 2, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s.Sample(), []int{0, 1, 2, 3, 4, 5, 6}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sample() = %v, want %v", got, want)
	}
	if got := s.BatchCount(); got != 4 {
		t.Errorf("BatchCount = %v, want 4", got)
	}
}

func TestBatchSamplerDropLast(t *testing.T) {
	s, err := dutil.NewBatchSampler(7, 2, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(s.Sample()); got != 6 {
		t.Errorf("Sample() length %v, want 6", got)
	}
	if got := s.BatchCount(); got != 3 {
		t.Errorf("BatchCount = %v, want 3", got)
	}
}

func TestBatchSamplerShuffle(t *testing.T) {
	s, err := dutil.NewBatchSampler(50, 5, false, true)
	if err != nil {
		t.Fatal(err)
	}

	got := s.Sample()
	if len(got) != 50 {
		t.Fatalf("Sample() length %v, want 50", len(got))
	}

	// a shuffle is still a permutation of 0..n-1
	sorted := append([]int(nil), got...)
	sort.Ints(sorted)
	for i, v := range sorted {
		if v != i {
			t.Fatalf("Sample() is not a permutation: %v", got)
		}
	}
}

func TestDataLoaderBatches(t *testing.T) {
	s, err := dutil.NewBatchSampler(5, 2, false, false)
	if err != nil {
		t.Fatal(err)
	}
	dl, err := dutil.NewDataLoader(intDataset{n: 5}, s)
	if err != nil {
		t.Fatal(err)
	}

	var batches [][]int
	for dl.HasNext() {
		b, err := dl.Next()
		if err != nil {
			t.Fatal(err)
		}
		batches = append(batches, b.([]int))
	}

	want := [][]int{{0, 1}, {2, 3}, {4}}
	if !reflect.DeepEqual(batches, want) {
		t.Errorf("batches %v, want %v", batches, want)
	}

	if _, err := dl.Next(); err == nil {
		t.Error("Next past the epoch end must fail")
	}
}

func TestDataLoaderReset(t *testing.T) {
	s, err := dutil.NewBatchSampler(4, 2, false, false)
	if err != nil {
		t.Fatal(err)
	}
	dl, err := dutil.NewDataLoader(intDataset{n: 4}, s)
	if err != nil {
		t.Fatal(err)
	}

	for dl.HasNext() {
		if _, err := dl.Next(); err != nil {
			t.Fatal(err)
		}
	}

	dl.Reset()
	if !dl.HasNext() {
		t.Fatal("no batches after Reset")
	}
	b, err := dl.Next()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := b.([]int), []int{0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("first batch after Reset %v, want %v", got, want)
	}
}

func TestDataLoaderNilArgs(t *testing.T) {
	s, err := dutil.NewBatchSampler(4, 2, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dutil.NewDataLoader(nil, s); err == nil {
		t.Error("nil dataset accepted")
	}
	if _, err := dutil.NewDataLoader(intDataset{n: 4}, nil); err == nil {
		t.Error("nil sampler accepted")
	}
}

package metric_test

import (
	"math"
	"testing"

	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/elunet/metric"
)

func binaryMasks() (pred, target *ts.Tensor) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred = ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target = ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)

	return pred, target
}

func TestDiceCoeff(t *testing.T) {
	pred, target := binaryMasks()
	defer pred.MustDrop()
	defer target.MustDrop()

	// overlap 3, |P| 3, |T| 4
	got := metric.DiceCoeff(pred, target)
	if want := 6.0 / 7.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("DiceCoeff = %v, want %v", got, want)
	}
}

func TestIoU(t *testing.T) {
	pred, target := binaryMasks()
	defer pred.MustDrop()
	defer target.MustDrop()

	got := metric.IoU(pred, target)
	if want := 0.75; math.Abs(got-want) > 1e-6 {
		t.Errorf("IoU = %v, want %v", got, want)
	}
}

func TestJaccardIndex(t *testing.T) {
	pred, target := binaryMasks()
	defer pred.MustDrop()
	defer target.MustDrop()

	// class 0: 5/6, class 1: 3/4
	got := metric.JaccardIndex(pred, target, 2)
	if want := 19.0 / 24.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("JaccardIndex = %v, want %v", got, want)
	}
}

func TestJaccardIndexIdentical(t *testing.T) {
	pred, _ := binaryMasks()
	defer pred.MustDrop()

	got := metric.JaccardIndex(pred, pred, 2)
	if math.Abs(got-1) > 1e-6 {
		t.Errorf("JaccardIndex of identical masks = %v, want 1", got)
	}
}

func TestJaccardIndexFromLogits(t *testing.T) {
	// class 1 wins on the second half of the voxels
	vals := []float64{
		1, 1, 1, 1, 0, 0, 0, 0, // class 0 plane
		0, 0, 0, 0, 2, 2, 2, 2, // class 1 plane
	}
	logits := ts.MustOfSlice(vals).MustView([]int64{1, 2, 2, 2, 2}, true)
	defer logits.MustDrop()

	pred := logits.MustArgmax([]int64{1}, false, false)
	defer pred.MustDrop()

	target := ts.MustOfSlice([]int64{0, 0, 0, 0, 1, 1, 1, 1}).MustView([]int64{1, 2, 2, 2}, true)
	defer target.MustDrop()

	got := metric.JaccardIndex(pred, target, 2)
	if math.Abs(got-1) > 1e-6 {
		t.Errorf("JaccardIndex from argmax predictions = %v, want 1", got)
	}
}

func TestSoftDiceLossPerfect(t *testing.T) {
	target := ts.MustOfSlice([]float64{1, 0, 0, 1}).MustView([]int64{1, 2, 2}, true)
	defer target.MustDrop()

	loss := metric.SoftDiceLoss(target, target)
	defer loss.MustDrop()

	if got := loss.Float64Values()[0]; math.Abs(got) > 1e-6 {
		t.Errorf("loss on perfect prediction = %v, want 0", got)
	}
}

func TestSoftDiceLossHalfConfidence(t *testing.T) {
	target := ts.MustOfSlice([]float64{1, 1, 1, 1}).MustView([]int64{1, 2, 2}, true)
	prob := ts.MustOfSlice([]float64{0.5, 0.5, 0.5, 0.5}).MustView([]int64{1, 2, 2}, true)
	defer target.MustDrop()
	defer prob.MustDrop()

	// tp 2, fp 0, fn 2: dc = 5/7
	loss := metric.SoftDiceLoss(prob, target)
	defer loss.MustDrop()

	if got, want := loss.Float64Values()[0], 2.0/7.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("loss = %v, want %v", got, want)
	}
}

func TestCrossEntropyLossUniform(t *testing.T) {
	logits := ts.MustZeros([]int64{1, 2, 2, 2, 2}, gotch.Float, gotch.CPU)
	target := ts.MustZeros([]int64{1, 2, 2, 2}, gotch.Int64, gotch.CPU)
	defer logits.MustDrop()
	defer target.MustDrop()

	loss := metric.CrossEntropyLoss(logits, target)
	defer loss.MustDrop()

	if got, want := loss.Float64Values()[0], math.Log(2); math.Abs(got-want) > 1e-5 {
		t.Errorf("loss = %v, want ln 2 = %v", got, want)
	}
}

func TestCrossEntropyLossConfident(t *testing.T) {
	// heavily favour the correct class everywhere: loss goes to 0
	vals := make([]float64, 2*8)
	for i := 0; i < 8; i++ {
		vals[i] = 50 // class 0 plane
	}
	logits := ts.MustOfSlice(vals).MustView([]int64{1, 2, 2, 2, 2}, true).MustTotype(gotch.Float, true)
	target := ts.MustZeros([]int64{1, 2, 2, 2}, gotch.Int64, gotch.CPU)
	defer logits.MustDrop()
	defer target.MustDrop()

	loss := metric.CrossEntropyLoss(logits, target)
	defer loss.MustDrop()

	if got := loss.Float64Values()[0]; got > 1e-5 {
		t.Errorf("loss = %v, want ~0", got)
	}
}

package metric

import (
	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"
)

// DiceCoeff measures overlap between prediction and target after 0.5
// thresholding: 2*|P * T| / (|P| + |T|).
// Ref. http://campar.in.tum.de/pub/milletari2016Vnet/milletari2016Vnet.pdf
func DiceCoeff(pred, target *ts.Tensor) float64 {
	p := pred.MustView([]int64{-1}, false).MustGt(ts.FloatScalar(0.5), true)
	t := target.MustView([]int64{-1}, false).MustGt(ts.FloatScalar(0.5), true)
	ptMul := p.MustMul(t, false)
	overlap := ptMul.MustSum(gotch.Double, true).Float64Values()[0]
	pSum := p.MustSum(gotch.Double, true).Float64Values()[0]
	tSum := t.MustSum(gotch.Double, true).Float64Values()[0]
	if pSum+tSum == 0 {
		return 0
	}

	return 2 * overlap / (pSum + tSum)
}

// IoU is intersection over union of binary masks after 0.5 thresholding.
func IoU(pred, target *ts.Tensor) float64 {
	p := pred.MustView([]int64{-1}, false).MustGt(ts.FloatScalar(0.5), true)
	t := target.MustView([]int64{-1}, false).MustGt(ts.FloatScalar(0.5), true)
	ptMul := p.MustMul(t, false)
	overlap := ptMul.MustSum(gotch.Double, true).Float64Values()[0]
	pSum := p.MustSum(gotch.Double, true).Float64Values()[0]
	tSum := t.MustSum(gotch.Double, true).Float64Values()[0]
	union := pSum + tSum - overlap
	if union == 0 {
		return 0
	}

	return overlap / union
}

// JaccardIndex is the mean per-class intersection over union for integer
// class masks. Classes absent from both tensors are skipped.
func JaccardIndex(pred, target *ts.Tensor, nclasses int64) float64 {
	var sum float64
	var count int
	for c := int64(0); c < nclasses; c++ {
		p := pred.MustView([]int64{-1}, false).MustEq(ts.IntScalar(c), true)
		t := target.MustView([]int64{-1}, false).MustEq(ts.IntScalar(c), true)
		ptMul := p.MustMul(t, false)
		overlap := ptMul.MustSum(gotch.Double, true).Float64Values()[0]
		pSum := p.MustSum(gotch.Double, true).Float64Values()[0]
		tSum := t.MustSum(gotch.Double, true).Float64Values()[0]
		union := pSum + tSum - overlap
		if union == 0 {
			continue
		}
		sum += overlap / union
		count++
	}
	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

// SoftDiceLoss is a differentiable dice loss over probability volumes.
// Ref. https://gist.github.com/jeremyjordan/9ea3032a32909f71dd2ab35fe3bacc08
func SoftDiceLoss(prob, target *ts.Tensor) *ts.Tensor {
	dims := []int64{-3, -2, -1}
	smooth := 1.0

	xyMul := prob.MustMul(target, false)
	tp := xyMul.MustSum1(dims, false, gotch.Double, true)

	// 1-y
	y1 := target.MustMul1(ts.FloatScalar(-1), false).MustAdd1(ts.FloatScalar(1), true)
	xy1Mul := y1.MustMul(prob, true)
	fp := xy1Mul.MustSum1(dims, false, gotch.Double, true)

	// 1-x
	x1 := prob.MustMul1(ts.FloatScalar(-1), false).MustAdd1(ts.FloatScalar(1), true)
	x1yMul := x1.MustMul(target, true)
	fn := x1yMul.MustSum1(dims, false, gotch.Double, true)

	numerator := tp.MustMul1(ts.FloatScalar(2.0), false).MustAdd1(ts.FloatScalar(smooth), true)
	denominator := numerator.MustAdd(fp, false).MustAdd(fn, true)

	dc := numerator.MustDiv(denominator, true)

	tp.MustDrop()
	fp.MustDrop()
	fn.MustDrop()
	denominator.MustDrop()

	mean := dc.MustMean(gotch.Double, true)

	return mean.MustMul1(ts.FloatScalar(-1), true).MustAdd1(ts.FloatScalar(1), true)
}

// CrossEntropyLoss is the mean per-voxel cross entropy between class logits
// of shape (N, C, D, H, W) and int64 targets of shape (N, D, H, W).
func CrossEntropyLoss(logits, target *ts.Tensor) *ts.Tensor {
	nclasses := logits.MustSize()[1]

	logp := logits.MustLogSoftmax(1, gotch.Float, false)
	oneHot := target.MustOneHot(nclasses, false)
	// (N, D, H, W, C) -> (N, C, D, H, W)
	perm := oneHot.MustPermute([]int64{0, 4, 1, 2, 3}, true).MustTotype(gotch.Float, true)

	mul := logp.MustMul(perm, true)
	perm.MustDrop()
	perVoxel := mul.MustSum1([]int64{1}, false, gotch.Float, true)

	return perVoxel.MustMean(gotch.Float, true).MustMul1(ts.FloatScalar(-1), true)
}

package base_test

import (
	"reflect"
	"testing"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/elunet/base"
)

func TestConvShapes(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	c3 := base.Conv3x3(vs.Root().Sub("c3"), 2, 5, 1, 1)
	c1 := base.Conv1x1(vs.Root().Sub("c1"), 5, 3)

	x := ts.MustZeros([]int64{1, 2, 4, 6, 6}, gotch.Float, gotch.CPU)
	y := c3.ForwardT(x, false)
	if got, want := y.MustSize(), []int64{1, 5, 4, 6, 6}; !reflect.DeepEqual(got, want) {
		t.Errorf("Conv3x3 output %v, want %v", got, want)
	}

	z := c1.ForwardT(y, false)
	if got, want := z.MustSize(), []int64{1, 3, 4, 6, 6}; !reflect.DeepEqual(got, want) {
		t.Errorf("Conv1x1 output %v, want %v", got, want)
	}

	z.MustDrop()
	y.MustDrop()
	x.MustDrop()
}

func TestUpConv2x2(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)

	modes := []base.UpMode{base.UpModeTranspose, base.UpModeTrilinear}
	for _, mode := range modes {
		up := base.UpConv2x2(vs.Root().Sub(mode.String()), 4, 2, mode)

		x := ts.MustZeros([]int64{1, 4, 2, 3, 5}, gotch.Float, gotch.CPU)
		y := up.ForwardT(x, false)
		if got, want := y.MustSize(), []int64{1, 2, 4, 6, 10}; !reflect.DeepEqual(got, want) {
			t.Errorf("%v: output %v, want %v", mode, got, want)
		}
		y.MustDrop()
		x.MustDrop()
	}
}

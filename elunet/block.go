package elunet

import (
	"reflect"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/elunet/base"
)

// resample interpolates x to the reference spatial size using `trilinear`
// algorithm, no corner alignment. x is in shape [N C D H W].
func resample(x *ts.Tensor, outSize []int64) *ts.Tensor {
	xSize := x.MustSize()
	if reflect.DeepEqual(xSize[2:], outSize) {
		return x.MustDetach(false)
	}

	return x.MustUpsampleTrilinear3d(outSize, false, nil, nil, nil, false)
}

// DsBlock is one encoder stage: a 3x3x3 convolution with ReLU, followed by
// 2x max-pooling when the stage is not the deepest one.
type DsBlock struct {
	conv    *nn.Conv3D
	pooling bool
}

// NewDsBlock creates a DsBlock.
func NewDsBlock(p *nn.Path, cIn, cOut int64, pooling bool) *DsBlock {
	return &DsBlock{
		conv:    base.Conv3x3(p.Sub("conv"), cIn, cOut, 1, 1),
		pooling: pooling,
	}
}

// ForwardT forwards the input tensor and returns the stage output together
// with the pre-pool feature map kept as the stage's skip candidate. Without
// pooling both tensors hold the same values at the same resolution. The
// caller owns both returned tensors.
func (b *DsBlock) ForwardT(x *ts.Tensor, train bool) (out, beforePool *ts.Tensor) {
	c := b.conv.ForwardT(x, train)
	beforePool = c.MustRelu(true)

	if !b.pooling {
		return beforePool.MustDetach(false), beforePool
	}

	// ksize = 2; stride = 2; padding = 0; dilation = 1; ceil = false
	out = beforePool.MustMaxPool3d([]int64{2, 2, 2}, []int64{2, 2, 2}, []int64{0, 0, 0}, []int64{1, 1, 1}, false, false)

	return out, beforePool
}

// UsLayer is one decoder stage of the ELUNet.
type UsLayer interface {
	ForwardSkip(skip, x *ts.Tensor, train bool) *ts.Tensor
}

// UsBlock is a plain decoder stage: upsample the decoder tensor, concatenate
// the matching encoder skip along the channel axis and fuse with a 3x3x3
// convolution plus ReLU. The skip must already match the upsampled spatial
// size; feed inputs whose spatial dims are multiples of 2^(depth-1) or use
// UsBlockRes.
type UsBlock struct {
	upconv ts.ModuleT
	conv   *nn.Conv3D
}

// NewUsBlock creates a UsBlock.
func NewUsBlock(p *nn.Path, cIn, cOut int64, mode base.UpMode) *UsBlock {
	return &UsBlock{
		upconv: base.UpConv2x2(p.Sub("up"), cIn, cOut, mode),
		conv:   base.Conv3x3(p.Sub("conv"), cOut+cOut, cOut, 1, 1),
	}
}

// ForwardSkip implements UsLayer for UsBlock.
func (b *UsBlock) ForwardSkip(skip, x *ts.Tensor, train bool) *ts.Tensor {
	up := b.upconv.ForwardT(x, train)
	cat := ts.MustCat([]ts.Tensor{*up, *skip}, 1)
	up.MustDrop()
	c := b.conv.ForwardT(cat, train)
	cat.MustDrop()

	return c.MustRelu(true)
}

// UsBlockRes is the resized-concatenation decoder stage. It behaves like
// UsBlock but resamples the skip tensor to the upsampled spatial size when
// the two differ, which happens with non-power-of-two input sizes.
type UsBlockRes struct {
	upconv ts.ModuleT
	conv   *nn.Conv3D
}

// NewUsBlockRes creates a UsBlockRes.
func NewUsBlockRes(p *nn.Path, cIn, cOut int64, mode base.UpMode) *UsBlockRes {
	return &UsBlockRes{
		upconv: base.UpConv2x2(p.Sub("up"), cIn, cOut, mode),
		conv:   base.Conv3x3(p.Sub("conv"), cOut+cOut, cOut, 1, 1),
	}
}

// ForwardSkip implements UsLayer for UsBlockRes.
func (b *UsBlockRes) ForwardSkip(skip, x *ts.Tensor, train bool) *ts.Tensor {
	up := b.upconv.ForwardT(x, train)
	upSize := up.MustSize()
	sk := resample(skip, upSize[2:])
	cat := ts.MustCat([]ts.Tensor{*up, *sk}, 1)
	up.MustDrop()
	sk.MustDrop()
	c := b.conv.ForwardT(cat, train)
	cat.MustDrop()

	return c.MustRelu(true)
}

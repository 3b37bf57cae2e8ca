package base

import (
	"log"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// conv3DConfig mirrors gotch's 1D/2D default conv configs for the 3D case,
// which the pinned gotch version does not ship.
func conv3DConfig(stride, padding int64) *nn.Conv3DConfig {
	return &nn.Conv3DConfig{
		Stride:   []int64{stride, stride, stride},
		Padding:  []int64{padding, padding, padding},
		Dilation: []int64{1, 1, 1},
		Groups:   1,
		Bias:     true,
		WsInit:   nn.NewKaimingUniformInit(),
		BsInit:   nn.NewConstInit(0.0),
	}
}

// Conv3x3 creates a 3x3x3 Conv3D module.
func Conv3x3(p *nn.Path, cIn, cOut, stride, padding int64) *nn.Conv3D {
	return nn.NewConv3D(p, cIn, cOut, 3, conv3DConfig(stride, padding))
}

// Conv1x1 creates a 1x1x1 Conv3D module for channel projection.
func Conv1x1(p *nn.Path, cIn, cOut int64) *nn.Conv3D {
	return nn.NewConv3D(p, cIn, cOut, 1, conv3DConfig(1, 0))
}

// UpConv2x2 creates the 2x spatial upsampling operator of a decoder stage.
//
// UpModeTranspose is a learned transposed convolution (kernel 2, stride 2)
// that doubles spatial size and changes channel count in one step.
// UpModeTrilinear is a fixed 2x trilinear interpolation followed by a 1x1x1
// channel projection.
func UpConv2x2(p *nn.Path, cIn, cOut int64, mode UpMode) ts.ModuleT {
	switch mode {
	case UpModeTranspose:
		config := &nn.ConvTranspose3DConfig{
			Stride:        []int64{2, 2, 2},
			Padding:       []int64{0, 0, 0},
			OutputPadding: []int64{0, 0, 0},
			Dilation:      []int64{1, 1, 1},
			Groups:        1,
			Bias:          true,
			WsInit:        nn.NewKaimingUniformInit(),
			BsInit:        nn.NewConstInit(0.0),
		}
		tconv := nn.NewConvTranspose3D(p, cIn, cOut, []int64{2, 2, 2}, config)

		// ConvTranspose3D only implements Module; wrap it so the two
		// modes share the ModuleT surface.
		seq := nn.SeqT()
		seq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
			return tconv.Forward(xs)
		}))

		return seq
	case UpModeTrilinear:
		seq := nn.SeqT()
		seq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
			size := xs.MustSize()
			outSize := []int64{size[2] * 2, size[3] * 2, size[4] * 2}
			return xs.MustUpsampleTrilinear3d(outSize, false, nil, nil, nil, false)
		}))
		seq.Add(Conv1x1(p.Sub("proj"), cIn, cOut))

		return seq
	default:
		// ParseUpMode is the only way to obtain an UpMode value.
		log.Fatalf("Unsupported upsample mode: %v\n", mode)
		return nil
	}
}

package elunet

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/elunet/base"
)

// Config holds the fixed construction parameters of an ELUNet.
type Config struct {
	NumClasses   int64
	InChannels   int64
	Depth        int64
	StartFilters int64
	UpMode       base.UpMode
	Res          bool
}

// DefaultConfig returns the stock configuration: 3 input channels, depth 5,
// 64 start filters, learned transposed-convolution upsampling.
func DefaultConfig(numClasses int64) Config {
	return Config{
		NumClasses:   numClasses,
		InChannels:   3,
		Depth:        5,
		StartFilters: 64,
		UpMode:       base.UpModeTranspose,
	}
}

// Validate checks the construction parameters, including the fusion-width
// invariant: the skip consumed by every decoder stage must carry exactly the
// stage's output width, so that each 2x-width fusion convolution stays
// shape-valid.
func (c Config) Validate() error {
	if c.NumClasses < 1 {
		return fmt.Errorf("elunet: NumClasses must be >= 1, got %v", c.NumClasses)
	}
	if c.InChannels < 1 {
		return fmt.Errorf("elunet: InChannels must be >= 1, got %v", c.InChannels)
	}
	if c.Depth < 1 {
		return fmt.Errorf("elunet: Depth must be >= 1, got %v", c.Depth)
	}
	if c.StartFilters < 1 {
		return fmt.Errorf("elunet: StartFilters must be >= 1, got %v", c.StartFilters)
	}

	enc := c.EncoderChannels()
	dec := c.DecoderChannels()
	for j, cOut := range dec {
		skip := enc[len(enc)-2-j]
		if skip != cOut {
			return fmt.Errorf("elunet: decoder stage %v skip width %v does not match output width %v", j, skip, cOut)
		}
	}

	return nil
}

// EncoderChannels returns the feature widths along the encoder: element 0 is
// the width after the initial convolution, element i+1 the output width of
// encoder stage i. Widths double stage over stage.
func (c Config) EncoderChannels() []int64 {
	chs := []int64{c.StartFilters}
	for i := int64(0); i < c.Depth; i++ {
		chs = append(chs, chs[len(chs)-1]*2)
	}

	return chs
}

// DecoderChannels returns the output width of each of the Depth-1 decoder
// stages. Widths halve stage over stage, starting from half the deepest
// encoder width.
func (c Config) DecoderChannels() []int64 {
	var chs []int64
	cur := c.StartFilters << uint(c.Depth)
	for j := int64(0); j < c.Depth-1; j++ {
		cur /= 2
		chs = append(chs, cur)
	}

	return chs
}

// ELUNet is a 3D encoder-decoder segmentation network with skip connections.
// It holds no mutable state across forward passes beyond learned parameters.
type ELUNet struct {
	config    Config
	convStart *nn.Conv3D
	downConvs []*DsBlock
	upConvs   []UsLayer
	segHead   *nn.SequentialT
}

// New creates an ELUNet under the given var-store path.
func New(p *nn.Path, config Config) (*ELUNet, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	convStart := base.Conv3x3(p.Sub("start"), config.InChannels, config.StartFilters, 1, 1)

	enc := config.EncoderChannels()
	var downConvs []*DsBlock
	for i := int64(0); i < config.Depth; i++ {
		pooling := i < config.Depth-1
		down := NewDsBlock(p.Sub(fmt.Sprintf("down%v", i)), enc[i], enc[i+1], pooling)
		downConvs = append(downConvs, down)
	}

	var upConvs []UsLayer
	cIn := enc[len(enc)-1]
	for j, cOut := range config.DecoderChannels() {
		sub := p.Sub(fmt.Sprintf("up%v", j))
		if config.Res {
			upConvs = append(upConvs, NewUsBlockRes(sub, cIn, cOut, config.UpMode))
		} else {
			upConvs = append(upConvs, NewUsBlock(sub, cIn, cOut, config.UpMode))
		}
		cIn = cOut
	}

	segHead := base.NewSegmentationHead(p.Sub("logit"), cIn, config.NumClasses)

	return &ELUNet{
		config:    config,
		convStart: convStart,
		downConvs: downConvs,
		upConvs:   upConvs,
		segHead:   segHead,
	}, nil
}

// Config returns the construction parameters.
func (n *ELUNet) Config() Config {
	return n.config
}

// ForwardFeatures runs the full encoder-decoder pass. It returns the decoder
// output (the classifier projection is NOT applied, see ClassifyT) together
// with the Depth-1 downsampled encoder outputs in production order. The
// caller owns every returned tensor.
//
// Each decoder stage consumes the pre-pool feature map of its
// matching-resolution encoder stage, last encoder skip first.
func (n *ELUNet) ForwardFeatures(x *ts.Tensor, train bool) (*ts.Tensor, []*ts.Tensor) {
	cur := n.convStart.ForwardT(x, train)

	var skips []*ts.Tensor       // post-pool stage outputs, handed to the caller
	var beforePools []*ts.Tensor // pre-pool maps, consumed by the decoder
	for i, down := range n.downConvs {
		out, beforePool := down.ForwardT(cur, train)
		cur.MustDrop()
		cur = out
		beforePools = append(beforePools, beforePool)
		if i < len(n.downConvs)-1 {
			skips = append(skips, out.MustDetach(false))
		}
	}

	for j, up := range n.upConvs {
		skip := beforePools[len(n.upConvs)-1-j]
		out := up.ForwardSkip(skip, cur, train)
		cur.MustDrop()
		cur = out
	}

	for _, f := range beforePools {
		f.MustDrop()
	}

	return cur, skips
}

// ForwardT implements ts.ModuleT for ELUNet. It returns the decoder output
// without the final classifier projection.
func (n *ELUNet) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	out, skips := n.ForwardFeatures(x, train)
	for _, s := range skips {
		s.MustDrop()
	}

	return out
}

// ClassifyT applies the final 1x1x1 classifier projection to a decoder
// output, producing per-voxel class logits.
func (n *ELUNet) ClassifyT(x *ts.Tensor, train bool) *ts.Tensor {
	return n.segHead.ForwardT(x, train)
}

// LogitsT runs a full forward pass through decoder and classifier.
func (n *ELUNet) LogitsT(x *ts.Tensor, train bool) *ts.Tensor {
	out := n.ForwardT(x, train)
	logit := n.ClassifyT(out, train)
	out.MustDrop()

	return logit
}

package base

import "github.com/sugarme/gotch/nn"

// NewSegmentationHead creates new SegmentationHead (nn.SequentialT):
// a 1x1x1 projection from decoder features to class logits.
func NewSegmentationHead(p *nn.Path, cIn, cOut int64) *nn.SequentialT {
	seq := nn.SeqT()
	seq.Add(Conv1x1(p, cIn, cOut))

	return seq
}

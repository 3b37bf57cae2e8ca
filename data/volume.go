package data

import (
	"errors"
	"fmt"
	"math"
)

// Canonical spatial size every case is cropped to before training.
const (
	SizeX = 144
	SizeY = 144
	SizeZ = 8
)

var (
	// ErrCaseNotFound reports a missing case directory or case file.
	ErrCaseNotFound = errors.New("case not found")
	// ErrConfigMalformed reports an unusable Info.cfg.
	ErrConfigMalformed = errors.New("malformed Info.cfg")
	// ErrVolumeShapeMismatch reports a volume the crop pipeline cannot handle.
	ErrVolumeShapeMismatch = errors.New("volume shape mismatch")
)

// Volume is a dense row-major volume in SimpleITK axis order: (t, z, y, x)
// for 4D intensity data, (z, y, x) for 3D label data. The x axis varies
// fastest.
type Volume struct {
	Shape []int64
	Data  []float32
}

// NewVolume allocates a zero-filled volume.
func NewVolume(shape ...int64) *Volume {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}

	return &Volume{Shape: shape, Data: make([]float32, n)}
}

// Phase returns one time point of a 4D volume as a 3D volume sharing the
// same backing array.
func (v *Volume) Phase(t int64) *Volume {
	n := v.Shape[1] * v.Shape[2] * v.Shape[3]

	return &Volume{Shape: []int64{v.Shape[1], v.Shape[2], v.Shape[3]}, Data: v.Data[t*n : (t+1)*n]}
}

// CropImage center-crops a 4D (t, z, y, x) volume to the canonical 144x144
// in-plane size and 8 slices of depth. Shallower stacks are zero-padded at
// the end of the depth axis instead of cropped. The time axis is kept
// intact. Volumes already at canonical size come back unchanged in value.
func CropImage(v *Volume) (*Volume, error) {
	if len(v.Shape) != 4 {
		return nil, fmt.Errorf("%w: want 4D (t z y x), got %v", ErrVolumeShapeMismatch, v.Shape)
	}
	t, z, y, x := v.Shape[0], v.Shape[1], v.Shape[2], v.Shape[3]
	y0, x0, err := inPlaneOffsets(y, x)
	if err != nil {
		return nil, err
	}

	var z0 int64
	depth := z
	if z >= SizeZ {
		z0 = z/2 - SizeZ/2
		depth = SizeZ
	}

	out := NewVolume(t, SizeZ, SizeY, SizeX)
	for ti := int64(0); ti < t; ti++ {
		for zi := int64(0); zi < depth; zi++ {
			for yi := int64(0); yi < SizeY; yi++ {
				src := ((ti*z+z0+zi)*y+y0+yi)*x + x0
				dst := ((ti*SizeZ+zi)*SizeY + yi) * SizeX
				copy(out.Data[dst:dst+SizeX], v.Data[src:src+SizeX])
			}
		}
	}

	return out, nil
}

// CropLabel is CropImage for 3D (z, y, x) label volumes.
func CropLabel(v *Volume) (*Volume, error) {
	if len(v.Shape) != 3 {
		return nil, fmt.Errorf("%w: want 3D (z y x), got %v", ErrVolumeShapeMismatch, v.Shape)
	}
	z, y, x := v.Shape[0], v.Shape[1], v.Shape[2]
	y0, x0, err := inPlaneOffsets(y, x)
	if err != nil {
		return nil, err
	}

	var z0 int64
	depth := z
	if z >= SizeZ {
		z0 = z/2 - SizeZ/2
		depth = SizeZ
	}

	out := NewVolume(SizeZ, SizeY, SizeX)
	for zi := int64(0); zi < depth; zi++ {
		for yi := int64(0); yi < SizeY; yi++ {
			src := ((z0+zi)*y+y0+yi)*x + x0
			dst := (zi*SizeY + yi) * SizeX
			copy(out.Data[dst:dst+SizeX], v.Data[src:src+SizeX])
		}
	}

	return out, nil
}

func inPlaneOffsets(y, x int64) (y0, x0 int64, err error) {
	if y < SizeY || x < SizeX {
		return 0, 0, fmt.Errorf("%w: in-plane size %vx%v smaller than %vx%v",
			ErrVolumeShapeMismatch, y, x, SizeY, SizeX)
	}

	return y/2 - SizeY/2, x/2 - SizeX/2, nil
}

// Normalize shifts and scales intensities in place to zero mean and unit
// variance. A constant-intensity volume comes out all zero instead of
// dividing by a zero deviation. Applied to image volumes only, never to
// labels.
func Normalize(v *Volume) {
	n := float64(len(v.Data))
	if n == 0 {
		return
	}

	var sum float64
	for _, x := range v.Data {
		sum += float64(x)
	}
	mean := sum / n

	var ss float64
	for _, x := range v.Data {
		d := float64(x) - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / n)
	if sd == 0 {
		for i := range v.Data {
			v.Data[i] = 0
		}
		return
	}

	for i, x := range v.Data {
		v.Data[i] = float32((float64(x) - mean) / sd)
	}
}

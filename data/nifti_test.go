package data_test

import (
	"compress/gzip"
	"encoding/binary"
	"io/ioutil"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sugarme/elunet/data"
)

// niftiSpec describes a synthetic single-file NIfTI-1 volume for tests.
// Dims are in on-disk order (x fastest); voxels are given in that same
// order and encoded per Datatype.
type niftiSpec struct {
	Dims     []int16
	Datatype int16
	Voxels   []float32
	Slope    float32
	Inter    float32
	Order    binary.ByteOrder
	Magic    string
}

func writeNIfTI(t *testing.T, path string, spec niftiSpec) {
	t.Helper()

	order := spec.Order
	if order == nil {
		order = binary.LittleEndian
	}
	magic := spec.Magic
	if magic == "" {
		magic = "n+1"
	}

	hdr := make([]byte, 352)
	order.PutUint32(hdr[0:4], 348)
	order.PutUint16(hdr[40:42], uint16(int16(len(spec.Dims))))
	for i, d := range spec.Dims {
		order.PutUint16(hdr[42+2*i:44+2*i], uint16(d))
	}
	order.PutUint16(hdr[70:72], uint16(spec.Datatype))
	order.PutUint32(hdr[108:112], math.Float32bits(352))
	order.PutUint32(hdr[112:116], math.Float32bits(spec.Slope))
	order.PutUint32(hdr[116:120], math.Float32bits(spec.Inter))
	copy(hdr[344:348], magic)

	buf := hdr
	for _, v := range spec.Voxels {
		switch spec.Datatype {
		case 2: // uint8
			buf = append(buf, byte(v))
		case 4: // int16
			var b [2]byte
			order.PutUint16(b[:], uint16(int16(v)))
			buf = append(buf, b[:]...)
		case 16: // float32
			var b [4]byte
			order.PutUint32(b[:], math.Float32bits(v))
			buf = append(buf, b[:]...)
		case 64: // float64
			var b [8]byte
			order.PutUint64(b[:], math.Float64bits(float64(v)))
			buf = append(buf, b[:]...)
		default:
			t.Fatalf("writeNIfTI: unhandled datatype %v", spec.Datatype)
		}
	}

	if strings.HasSuffix(path, ".gz") {
		var gzBuf strings.Builder
		gz := gzip.NewWriter(&gzBuf)
		if _, err := gz.Write(buf); err != nil {
			t.Fatal(err)
		}
		if err := gz.Close(); err != nil {
			t.Fatal(err)
		}
		buf = []byte(gzBuf.String())
	}

	if err := ioutil.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReadNIfTIFloat32(t *testing.T) {
	// on-disk (x=2, y=3, z=4), read back as (z=4, y=3, x=2)
	voxels := make([]float32, 24)
	for i := range voxels {
		voxels[i] = float32(i) * 0.5
	}

	path := filepath.Join(t.TempDir(), "vol.nii")
	writeNIfTI(t, path, niftiSpec{
		Dims:     []int16{2, 3, 4},
		Datatype: 16,
		Voxels:   voxels,
	})

	v, err := data.ReadNIfTI(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{4, 3, 2}; !reflect.DeepEqual(v.Shape, want) {
		t.Fatalf("shape %v, want %v", v.Shape, want)
	}
	// x-fastest storage survives unchanged; only the shape is reversed.
	if !reflect.DeepEqual(v.Data, voxels) {
		t.Errorf("voxel order changed: %v", v.Data)
	}
}

func TestReadNIfTIGzipScaled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vol.nii.gz")
	writeNIfTI(t, path, niftiSpec{
		Dims:     []int16{2, 2},
		Datatype: 4,
		Voxels:   []float32{1, 2, 3, 4},
		Slope:    2,
		Inter:    -1,
	})

	v, err := data.ReadNIfTI(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float32{1, 3, 5, 7}; !reflect.DeepEqual(v.Data, want) {
		t.Errorf("scaled voxels %v, want %v", v.Data, want)
	}
}

func TestReadNIfTIBigEndian(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vol.nii")
	writeNIfTI(t, path, niftiSpec{
		Dims:     []int16{3},
		Datatype: 2,
		Voxels:   []float32{7, 8, 9},
		Order:    binary.BigEndian,
	})

	v, err := data.ReadNIfTI(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float32{7, 8, 9}; !reflect.DeepEqual(v.Data, want) {
		t.Errorf("voxels %v, want %v", v.Data, want)
	}
}

func TestReadNIfTIBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vol.nii")
	writeNIfTI(t, path, niftiSpec{
		Dims:     []int16{1},
		Datatype: 2,
		Voxels:   []float32{1},
		Magic:    "ni1",
	})

	if _, err := data.ReadNIfTI(path); err == nil {
		t.Error("two-file magic accepted, want error")
	}
}

func TestReadNIfTIMissingFile(t *testing.T) {
	if _, err := data.ReadNIfTI(filepath.Join(t.TempDir(), "nope.nii.gz")); err == nil {
		t.Error("missing file accepted, want error")
	}
}

package data

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"
	"strings"
)

// NIfTI-1 datatype codes.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
)

const niftiHeaderSize = 348

// ReadNIfTI reads a single-file NIfTI-1 volume, gzip-compressed or plain,
// and returns it in SimpleITK axis order: slowest-varying axis first, so a
// 4D file with on-disk dims (x, y, z, t) comes back with Shape (t, z, y, x).
func ReadNIfTI(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%v: %v", path, err)
		}
		defer gz.Close()
		r = gz
	}

	v, err := readNIfTI(r)
	if err != nil {
		return nil, fmt.Errorf("%v: %v", path, err)
	}

	return v, nil
}

func readNIfTI(r io.Reader) (*Volume, error) {
	hdr := make([]byte, niftiHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("short NIfTI header: %v", err)
	}

	// sizeof_hdr doubles as the endianness probe.
	var order binary.ByteOrder = binary.LittleEndian
	if order.Uint32(hdr[0:4]) != niftiHeaderSize {
		order = binary.BigEndian
		if order.Uint32(hdr[0:4]) != niftiHeaderSize {
			return nil, fmt.Errorf("not a NIfTI-1 file")
		}
	}
	if magic := string(hdr[344:347]); magic != "n+1" {
		return nil, fmt.Errorf("unsupported NIfTI magic %q", magic)
	}

	ndim := int(int16(order.Uint16(hdr[40:42])))
	if ndim < 1 || ndim > 7 {
		return nil, fmt.Errorf("bad NIfTI dim count %v", ndim)
	}

	dims := make([]int64, ndim) // on-disk order, x fastest
	numel := int64(1)
	for i := 0; i < ndim; i++ {
		d := int64(int16(order.Uint16(hdr[42+2*i : 44+2*i])))
		if d < 1 {
			d = 1
		}
		dims[i] = d
		numel *= d
	}

	datatype := int16(order.Uint16(hdr[70:72]))
	voxOffset := int64(math.Float32frombits(order.Uint32(hdr[108:112])))
	sclSlope := math.Float32frombits(order.Uint32(hdr[112:116]))
	sclInter := math.Float32frombits(order.Uint32(hdr[116:120]))

	// Voxel data starts at vox_offset; 352 is the minimum for single-file
	// NIfTI (header plus extension flag).
	if voxOffset < niftiHeaderSize+4 {
		voxOffset = niftiHeaderSize + 4
	}
	if _, err := io.CopyN(ioutil.Discard, r, voxOffset-niftiHeaderSize); err != nil {
		return nil, fmt.Errorf("truncated NIfTI file: %v", err)
	}

	var bpv int64
	switch datatype {
	case dtUint8, dtInt8:
		bpv = 1
	case dtInt16, dtUint16:
		bpv = 2
	case dtInt32, dtFloat32:
		bpv = 4
	case dtFloat64:
		bpv = 8
	default:
		return nil, fmt.Errorf("unsupported NIfTI datatype %v", datatype)
	}

	raw := make([]byte, numel*bpv)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("truncated NIfTI voxel data: %v", err)
	}

	data := make([]float32, numel)
	for i := int64(0); i < numel; i++ {
		switch datatype {
		case dtUint8:
			data[i] = float32(raw[i])
		case dtInt8:
			data[i] = float32(int8(raw[i]))
		case dtInt16:
			data[i] = float32(int16(order.Uint16(raw[2*i:])))
		case dtUint16:
			data[i] = float32(order.Uint16(raw[2*i:]))
		case dtInt32:
			data[i] = float32(int32(order.Uint32(raw[4*i:])))
		case dtFloat32:
			data[i] = math.Float32frombits(order.Uint32(raw[4*i:]))
		case dtFloat64:
			data[i] = float32(math.Float64frombits(order.Uint64(raw[8*i:])))
		}
	}

	if sclSlope != 0 && (sclSlope != 1 || sclInter != 0) {
		for i := range data {
			data[i] = data[i]*sclSlope + sclInter
		}
	}

	shape := make([]int64, ndim)
	for i, d := range dims {
		shape[ndim-1-i] = d
	}

	return &Volume{Shape: shape, Data: data}, nil
}

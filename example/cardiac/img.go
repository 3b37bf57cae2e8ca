package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/sugarme/elunet/data"
)

// readImage reads image from file.
func readImage(filename string) (image.Image, error) {
	ext := filepath.Ext(filename)
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ".png", ".PNG":
		return png.Decode(f)
	case ".jpg", ".jpeg", ".JPG", ".JPEG":
		return jpeg.Decode(f)
	case ".tiff", ".tif", ".TIFF", ".TIF":
		return tiff.Decode(f)
	default:
		err = fmt.Errorf("Unsupported image format: %v\n", ext)
		return nil, err
	}
}

// sliceGray converts one z slice of a 3D volume to grayscale, scaling
// intensities to the full 8-bit range.
func sliceGray(v *data.Volume, z int64) *image.Gray {
	ys, xs := v.Shape[1], v.Shape[2]

	min, max := v.Data[0], v.Data[0]
	for _, val := range v.Data {
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}

	img := image.NewGray(image.Rect(0, 0, int(xs), int(ys)))
	for y := int64(0); y < ys; y++ {
		for x := int64(0); x < xs; x++ {
			val := v.Data[(z*ys+y)*xs+x]
			var g uint8
			if max > min {
				g = uint8(255 * (val - min) / (max - min))
			}
			img.SetGray(int(x), int(y), color.Gray{Y: g})
		}
	}

	return img
}

// overlayMask colors label classes over a grayscale slice: class 1 red,
// class 2 green, class 3 blue.
func overlayMask(gray *image.Gray, mask *data.Volume, z int64) *image.NRGBA {
	bounds := gray.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Copy(dst, image.ZP, gray, bounds, draw.Src, nil)

	palette := []color.NRGBA{
		{},
		{R: 255, A: 128},
		{G: 255, A: 128},
		{B: 255, A: 128},
	}

	ys, xs := mask.Shape[1], mask.Shape[2]
	for y := int64(0); y < ys; y++ {
		for x := int64(0); x < xs; x++ {
			c := int(mask.Data[(z*ys+y)*xs+x])
			if c <= 0 || c >= len(palette) {
				continue
			}
			dst.SetNRGBA(int(x), int(y), blend(dst.NRGBAAt(int(x), int(y)), palette[c]))
		}
	}

	return dst
}

func blend(base, over color.NRGBA) color.NRGBA {
	a := uint32(over.A)
	return color.NRGBA{
		R: uint8((uint32(base.R)*(255-a) + uint32(over.R)*a) / 255),
		G: uint8((uint32(base.G)*(255-a) + uint32(over.G)*a) / 255),
		B: uint8((uint32(base.B)*(255-a) + uint32(over.B)*a) / 255),
		A: 255,
	}
}

// runImage exports the middle end-diastole slice of one case as a PNG with
// the ground-truth mask overlaid, plus a thumbnail.
func runImage() {
	num, err := data.CaseNumber(CaseName)
	if err != nil {
		log.Fatal(err)
	}
	dir := filepath.Join(DataPath, "patient"+num)

	raw, err := data.ReadNIfTI(filepath.Join(dir, fmt.Sprintf("patient%v_4d.nii.gz", num)))
	if err != nil {
		log.Fatal(err)
	}
	img, err := data.CropImage(raw)
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "Info.cfg"))
	if err != nil {
		log.Fatal(err)
	}
	ed, _, err := data.ParseInfoCfg(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}

	label, err := data.ReadNIfTI(filepath.Join(dir, fmt.Sprintf("patient%v_frame%02d_gt.nii.gz", num, ed)))
	if err != nil {
		log.Fatal(err)
	}
	mask, err := data.CropLabel(label)
	if err != nil {
		log.Fatal(err)
	}

	z := int64(data.SizeZ / 2)
	gray := sliceGray(img.Phase(int64(ed-1)), z)
	overlay := overlayMask(gray, mask, z)

	outPath := fmt.Sprintf("patient%v_ed_slice%v.png", num, z)
	if err := imaging.Save(overlay, outPath); err != nil {
		log.Fatal(err)
	}

	thumb := resize.Resize(72, 0, overlay, resize.Bilinear)
	thumbPath := fmt.Sprintf("patient%v_ed_slice%v_thumb.png", num, z)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		log.Fatal(err)
	}

	// lossless export for downstream tools expecting tiff
	tifPath := fmt.Sprintf("patient%v_ed_slice%v.tif", num, z)
	tf, err := os.Create(tifPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := tiff.Encode(tf, overlay, nil); err != nil {
		tf.Close()
		log.Fatal(err)
	}
	tf.Close()

	// check the exported files decode back
	for _, p := range []string{outPath, thumbPath, tifPath} {
		if _, err := readImage(p); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("Exported %v, %v and %v\n", outPath, thumbPath, tifPath)
}

package data

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	ts "github.com/sugarme/gotch/tensor"
)

// NumPhases is the number of cardiac phases kept per case: end-diastole and
// end-systole.
const NumPhases = 2

var caseNumRe = regexp.MustCompile(`[0-9]+`)

// CaseNumber extracts the patient number embedded in a case folder name and
// zero-pads it to 3 digits; "patient5" and "5" both give "005".
func CaseNumber(caseID string) (string, error) {
	m := caseNumRe.FindString(caseID)
	if m == "" {
		return "", fmt.Errorf("%w: no case number in %q", ErrCaseNotFound, caseID)
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return "", fmt.Errorf("%w: bad case number in %q", ErrCaseNotFound, caseID)
	}

	return fmt.Sprintf("%03d", n), nil
}

// ParseInfoCfg reads the per-case frame configuration: two `key:value`
// lines, end-diastole first, end-systole second. The values are 1-based
// frame indexes. Only line order matters, the keys are not inspected.
func ParseInfoCfg(r io.Reader) (ed, es int, err error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return 0, 0, err
	}

	lines := strings.Split(string(b), "\n")
	if len(lines) < 2 {
		return 0, 0, fmt.Errorf("%w: want at least 2 lines, got %v", ErrConfigMalformed, len(lines))
	}
	if ed, err = parseCfgLine(lines[0]); err != nil {
		return 0, 0, err
	}
	if es, err = parseCfgLine(lines[1]); err != nil {
		return 0, 0, err
	}

	return ed, es, nil
}

func parseCfgLine(line string) (int, error) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: line %q", ErrConfigMalformed, line)
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: line %q", ErrConfigMalformed, line)
	}
	if v < 1 {
		return 0, fmt.Errorf("%w: frame index %v is not 1-based", ErrConfigMalformed, v)
	}

	return v, nil
}

// volumePath resolves a case file, preferring the gzip-compressed form.
func volumePath(dir, name string) (string, error) {
	for _, ext := range []string{".nii.gz", ".nii"} {
		p := filepath.Join(dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %v", ErrCaseNotFound, filepath.Join(dir, name+".nii.gz"))
}

// CardiacSample is one paired training example: the ED and ES phases of a
// case flattened phase-by-slice, plus the matching ground-truth masks.
//
// Image shape: (1, NumPhases*SizeZ, SizeY, SizeX), float values with zero
// mean and unit variance. Label shape: (NumPhases*SizeZ, SizeY, SizeX),
// int64 class indexes.
type CardiacSample struct {
	Image ts.Tensor
	Label ts.Tensor
}

// LoadCase reads, crops and normalizes one case from an ACDC-layout
// directory tree: `<root>/patient<NNN>/patient<NNN>_4d.nii.gz` plus
// `Info.cfg` and the two `patient<NNN>_frame<FF>_gt.nii.gz` masks.
func LoadCase(root, caseID string) (*CardiacSample, error) {
	num, err := CaseNumber(caseID)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, "patient"+num)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %v", ErrCaseNotFound, dir)
	}

	imgPath, err := volumePath(dir, "patient"+num+"_4d")
	if err != nil {
		return nil, err
	}
	raw, err := ReadNIfTI(imgPath)
	if err != nil {
		return nil, err
	}
	img, err := CropImage(raw)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", imgPath, err)
	}

	cfgPath := filepath.Join(dir, "Info.cfg")
	cfg, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaseNotFound, cfgPath)
	}
	ed, es, err := ParseInfoCfg(cfg)
	cfg.Close()
	if err != nil {
		return nil, fmt.Errorf("%v: %v", cfgPath, err)
	}

	if t := img.Shape[0]; int64(ed) > t || int64(es) > t {
		return nil, fmt.Errorf("%w: frames ED=%v ES=%v out of range for %v time points",
			ErrConfigMalformed, ed, es, t)
	}

	edLabel, err := readLabel(dir, num, ed)
	if err != nil {
		return nil, err
	}
	esLabel, err := readLabel(dir, num, es)
	if err != nil {
		return nil, err
	}

	// Stack the two phases ED first and flatten phase-by-slice into one
	// depth axis; intensities get normalized, labels never do.
	image := NewVolume(NumPhases*SizeZ, SizeY, SizeX)
	n := copy(image.Data, img.Phase(int64(ed-1)).Data)
	copy(image.Data[n:], img.Phase(int64(es-1)).Data)
	Normalize(image)

	label := make([]int64, NumPhases*SizeZ*SizeY*SizeX)
	for i, v := range edLabel.Data {
		label[i] = int64(v)
	}
	for i, v := range esLabel.Data {
		label[len(edLabel.Data)+i] = int64(v)
	}

	imgTs, err := ts.NewTensorFromData(image.Data, []int64{1, NumPhases * SizeZ, SizeY, SizeX})
	if err != nil {
		return nil, err
	}
	labelTs, err := ts.NewTensorFromData(label, []int64{NumPhases * SizeZ, SizeY, SizeX})
	if err != nil {
		imgTs.MustDrop()
		return nil, err
	}

	return &CardiacSample{Image: *imgTs, Label: *labelTs}, nil
}

func readLabel(dir, num string, frame int) (*Volume, error) {
	p, err := volumePath(dir, fmt.Sprintf("patient%v_frame%02d_gt", num, frame))
	if err != nil {
		return nil, err
	}
	v, err := ReadNIfTI(p)
	if err != nil {
		return nil, err
	}
	cropped, err := CropLabel(v)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", p, err)
	}

	return cropped, nil
}

// CardiacDataset serves one CardiacSample per case, loaded on demand at
// access time. It implements dutil.Dataset.
type CardiacDataset struct {
	root  string
	cases []string
}

// NewCardiacDataset creates a dataset over the given case folder names.
func NewCardiacDataset(root string, cases []string) *CardiacDataset {
	return &CardiacDataset{root: root, cases: cases}
}

// Len implements dutil.Dataset.
func (ds *CardiacDataset) Len() int {
	return len(ds.cases)
}

// Item implements dutil.Dataset. The caller owns the sample tensors.
func (ds *CardiacDataset) Item(idx int) (interface{}, error) {
	sample, err := LoadCase(ds.root, ds.cases[idx])
	if err != nil {
		return nil, err
	}

	return *sample, nil
}

// DType implements dutil.Dataset.
func (ds *CardiacDataset) DType() reflect.Type {
	return reflect.TypeOf(CardiacSample{})
}

// ListCases returns the patient case folders under an ACDC root, sorted.
func ListCases(root string) ([]string, error) {
	files, err := ioutil.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var cases []string
	for _, f := range files {
		if f.IsDir() && strings.HasPrefix(f.Name(), "patient") {
			cases = append(cases, f.Name())
		}
	}
	sort.Strings(cases)

	return cases, nil
}

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sugarme/elunet/data"
)

// runEDA summarises the dataset: per-case frame indexes and volume geometry
// written to a CSV next to the data, plus a slice-depth histogram. Cases
// shallower than the canonical 8 slices get zero-padded by the crop, so the
// histogram shows how often that happens.
func runEDA() {
	cases, err := data.ListCases(DataPath)
	if err != nil {
		log.Fatal(err)
	}
	if len(cases) == 0 {
		log.Fatalf("No patient folders under %v\n", DataPath)
	}

	records := [][]string{{"case", "ed", "es", "frames", "slices", "height", "width"}}
	var depths []float64
	for _, c := range cases {
		num, err := data.CaseNumber(c)
		if err != nil {
			log.Fatal(err)
		}
		dir := filepath.Join(DataPath, "patient"+num)

		f, err := os.Open(filepath.Join(dir, "Info.cfg"))
		if err != nil {
			log.Fatal(err)
		}
		ed, es, err := data.ParseInfoCfg(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}

		v, err := data.ReadNIfTI(filepath.Join(dir, "patient"+num+"_4d.nii.gz"))
		if err != nil {
			log.Fatal(err)
		}

		records = append(records, []string{
			c,
			strconv.Itoa(ed),
			strconv.Itoa(es),
			strconv.FormatInt(v.Shape[0], 10),
			strconv.FormatInt(v.Shape[1], 10),
			strconv.FormatInt(v.Shape[2], 10),
			strconv.FormatInt(v.Shape[3], 10),
		})
		depths = append(depths, float64(v.Shape[1]))
	}

	df := dataframe.LoadRecords(records)
	csvPath := filepath.Join(DataPath, "dataset_information.csv")
	out, err := os.Create(csvPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := df.WriteCSV(out); err != nil {
		log.Fatal(err)
	}
	out.Close()

	fmt.Printf("%v\n", df)
	fmt.Printf("Slice depth mean: %.2f\tsd: %.2f\n", stat.Mean(depths, nil), stat.StdDev(depths, nil))

	p, err := plot.New()
	if err != nil {
		log.Fatal(err)
	}
	vals := make(plotter.Values, len(depths))
	copy(vals, depths)
	h, err := plotter.NewHist(vals, 8)
	if err != nil {
		log.Fatal(err)
	}
	p.Title.Text = "Slice Depth Histogram"
	p.Add(h)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, "slice-depth-histo.png"); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %v and slice-depth-histo.png\n", csvPath)
}

package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/sugarme/gotch"

	"github.com/sugarme/elunet/base"
	"github.com/sugarme/elunet/elunet"
)

// flag variables
var (
	DataPath  string
	ModelPath string
	Cuda      bool
	task      string
	CaseName  string
	UpModeStr string
	Device    gotch.Device
	UpMode    base.UpMode
)

// hyperparameters
var (
	LR           float64 // learning rate
	BatchSize    int     // cases per batch
	Epochs       int     // passes over the training cases
	ValidateSize int     // number of iterations that triggers running validation task
	OptStr       string  // optimizer type
	NumClasses   int     // segmentation classes incl. background
	Depth        int     // encoder depth
	StartFilters int     // filters of the first encoder stage
	Res          bool    // resample skips on spatial mismatch
)

func init() {
	flag.StringVar(&DataPath, "input", "./input/training", "specify ACDC training data directory")
	flag.StringVar(&ModelPath, "model", "./model/elunet.ot", "specify full path to model weight '.ot' file.")
	flag.BoolVar(&Cuda, "cuda", false, "specify whether using CUDA or not.")
	flag.StringVar(&task, "task", "train", "specify task to run")
	flag.StringVar(&CaseName, "case", "patient001", "specify case folder for image export")
	flag.Float64Var(&LR, "lr", 0.001, "specify learning rate")
	flag.IntVar(&BatchSize, "batch", 2, "specify batch size")
	flag.IntVar(&Epochs, "epochs", 1, "specify number of training epochs")
	flag.IntVar(&ValidateSize, "validate", 10, "specify size of validation cycles.")
	flag.StringVar(&OptStr, "opt", "Adam", "specify optimizer type")
	flag.IntVar(&NumClasses, "classes", 4, "specify number of segmentation classes")
	flag.IntVar(&Depth, "depth", 4, "specify encoder depth")
	flag.IntVar(&StartFilters, "filters", 16, "specify start filter count")
	flag.StringVar(&UpModeStr, "upmode", "trilinear", "specify upsample mode: 'transpose'|'trilinear'")
	flag.BoolVar(&Res, "res", true, "specify whether decoder resamples skips on size mismatch")
}

func main() {
	flag.Parse()

	DataPath = absPath(DataPath)
	ModelPath = absPath(ModelPath)

	var err error
	UpMode, err = base.ParseUpMode(UpModeStr)
	if err != nil {
		log.Fatal(err)
	}

	Device = gotch.CPU
	if Cuda {
		Device = gotch.NewCuda().CudaIfAvailable()
	}

	switch task {
	case "model":
		runCheckModel()
	case "train":
		runTrain()
	case "validate":
		runValidate()
	case "eda":
		runEDA()
	case "image":
		runImage()
	default:
		err := fmt.Errorf("Unknown 'task' name. Please specify valid 'task' flag to run.\n")
		panic(err)
	}
}

func netConfig() elunet.Config {
	return elunet.Config{
		NumClasses:   int64(NumClasses),
		InChannels:   1,
		Depth:        int64(Depth),
		StartFilters: int64(StartFilters),
		UpMode:       UpMode,
		Res:          Res,
	}
}

// helper to get absolute file path
func absPath(p string) string {
	fullpath, err := filepath.Abs(p)
	if err != nil {
		log.Fatal(err)
	}
	return fullpath
}

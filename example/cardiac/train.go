package main

import (
	"fmt"
	"log"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/elunet/data"
	"github.com/sugarme/elunet/dutil"
	"github.com/sugarme/elunet/elunet"
	"github.com/sugarme/elunet/metric"
)

func buildNet(vs *nn.VarStore) *elunet.ELUNet {
	net, err := elunet.New(vs.Root(), netConfig())
	if err != nil {
		log.Fatal(err)
	}

	return net
}

func buildOptimizer(vs *nn.VarStore) *nn.Optimizer {
	var opt *nn.Optimizer
	var err error
	switch OptStr {
	case "SGD":
		opt, err = nn.DefaultSGDConfig().Build(vs, LR)
	case "Adam":
		opt, err = nn.DefaultAdamConfig().Build(vs, LR)
	default:
		err = fmt.Errorf("Unspecified/Invalid Optimizer option: '%v'.\n", OptStr)
	}
	if err != nil {
		log.Fatal(err)
	}

	return opt
}

func runTrain() {
	cases, err := data.ListCases(DataPath)
	if err != nil {
		log.Fatal(err)
	}
	if len(cases) < 2 {
		log.Fatalf("Need at least 2 cases for a train/validation split. Got %v\n", len(cases))
	}

	// hold out every tenth case for validation
	var trainCases, valCases []string
	for i, c := range cases {
		if i%10 == 9 {
			valCases = append(valCases, c)
		} else {
			trainCases = append(trainCases, c)
		}
	}
	if len(valCases) == 0 {
		trainCases, valCases = cases[:len(cases)-1], cases[len(cases)-1:]
	}

	vs := nn.NewVarStore(Device)
	net := buildNet(vs)
	opt := buildOptimizer(vs)

	batchSize := BatchSize
	if batchSize > len(trainCases) {
		batchSize = len(trainCases)
	}
	trainDS := data.NewCardiacDataset(DataPath, trainCases)
	s, err := dutil.NewBatchSampler(trainDS.Len(), batchSize, true, true)
	if err != nil {
		log.Fatal(err)
	}
	trainDL, err := dutil.NewDataLoader(trainDS, s)
	if err != nil {
		log.Fatal(err)
	}

	var si *SI
	if Device == gotch.CPU {
		si = CPUInfo()
		fmt.Printf("Total RAM (MB):\t %8.2f\n", float64(si.TotalRam)/1024)
		fmt.Printf("Used RAM (MB):\t %8.2f\n", float64(si.TotalRam-si.FreeRam)/1024)
	}

	count := 0
	for epoch := 0; epoch < Epochs; epoch++ {
		trainDL.Reset()
		for trainDL.HasNext() {
			if count != 0 && count%ValidateSize == 0 {
				doValidate(net, valCases)
			}
			b, err := trainDL.Next()
			if err != nil {
				log.Fatal(err)
			}
			count++

			input, target := collate(b.([]data.CardiacSample))

			logit := net.LogitsT(input, true)
			input.MustDrop()
			loss := metric.CrossEntropyLoss(logit, target)
			logit.MustDrop()
			target.MustDrop()

			opt.BackwardStep(loss)
			fmt.Printf("Epoch %v\tBatch %v\tLoss: %.5f\n", epoch, count, loss.Float64Values()[0])
			loss.MustDrop()

			if Device == gotch.CPU {
				si = CPUInfo()
				fmt.Printf("Batch %v\t Used RAM: [%8.2f MiB]\n", count, float64(si.TotalRam-si.FreeRam)/1024)
			}
		}
	}

	if err := vs.Save(ModelPath); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved weights to %v\n", ModelPath)
}

// collate stacks per-case samples into batch tensors on the training device:
// input (batch, 1, phases*slices, 144, 144), target (batch, phases*slices,
// 144, 144).
func collate(samples []data.CardiacSample) (input, target *ts.Tensor) {
	var imgs, labels []ts.Tensor
	for _, s := range samples {
		imgs = append(imgs, s.Image)
		labels = append(labels, s.Label)
	}

	imgTs := ts.MustStack(imgs, 0)
	for _, x := range imgs {
		x.MustDrop()
	}
	labelTs := ts.MustStack(labels, 0)
	for _, x := range labels {
		x.MustDrop()
	}

	input = imgTs.MustTo(Device, true)
	target = labelTs.MustTo(Device, true)

	return input, target
}

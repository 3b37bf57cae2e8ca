package main

import (
	"fmt"
	"log"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/elunet/data"
	"github.com/sugarme/elunet/dutil"
	"github.com/sugarme/elunet/elunet"
	"github.com/sugarme/elunet/metric"
)

func runValidate() {
	vs := nn.NewVarStore(Device)
	net := buildNet(vs)
	if _, err := vs.LoadPartial(ModelPath); err != nil {
		log.Fatal(err)
	}

	cases, err := data.ListCases(DataPath)
	if err != nil {
		log.Fatal(err)
	}

	doValidate(net, cases)
}

func doValidate(net *elunet.ELUNet, cases []string) {
	testDS := data.NewCardiacDataset(DataPath, cases)
	s, err := dutil.NewBatchSampler(testDS.Len(), 1, false, false) // no shuffle
	if err != nil {
		log.Fatal(err)
	}
	testDL, err := dutil.NewDataLoader(testDS, s)
	if err != nil {
		log.Fatal(err)
	}

	for testDL.HasNext() {
		b, err := testDL.Next()
		if err != nil {
			log.Fatal(err)
		}
		input, target := collate(b.([]data.CardiacSample))

		ts.NoGrad(func() {
			logit := net.LogitsT(input, false)
			loss := metric.CrossEntropyLoss(logit, target)
			pred := logit.MustArgmax([]int64{1}, false, true)
			miou := metric.JaccardIndex(pred, target, int64(NumClasses))
			fmt.Printf("Validate\tLoss: %.5f\tmIoU: %.4f\n", loss.Float64Values()[0], miou)
			pred.MustDrop()
			loss.MustDrop()
			input.MustDrop()
			target.MustDrop()
		})
	}
}

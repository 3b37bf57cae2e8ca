package main

import (
	"fmt"
	"sort"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// runCheckModel builds the configured network and pushes a random volume
// through it, printing the channel plan and every produced shape.
func runCheckModel() {
	vs := nn.NewVarStore(Device)
	net := buildNet(vs)

	config := net.Config()
	fmt.Printf("Encoder channels: %v\n", config.EncoderChannels())
	fmt.Printf("Decoder channels: %v\n", config.DecoderChannels())

	x := ts.MustRand([]int64{2, 1, 16, 144, 144}, gotch.Float, Device)
	out, skips := net.ForwardFeatures(x, false)
	fmt.Printf("out shape: %v\n", out.MustSize())
	for i, s := range skips {
		fmt.Printf("skip %v shape: %v\n", i, s.MustSize())
		s.MustDrop()
	}

	logit := net.ClassifyT(out, false)
	fmt.Printf("logit shape: %v\n", logit.MustSize())

	printVars(vs)

	out.MustDrop()
	logit.MustDrop()
	x.MustDrop()
}

// printVars print variables sorted by name
func printVars(vs *nn.VarStore) {
	vars := vs.Variables()
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("%v \t\t %v\n", n, vars[n].MustSize())
	}
}

package multiallpass_test

import (
	"fmt"

	"github.com/cwbudde/algo-multiallpass/dsp/effects/multiallpass"
)

func ExampleEngine() {
	engine, err := multiallpass.New(multiallpass.WithMaxChannels(1))
	if err != nil {
		panic(err)
	}

	if err := engine.Prepare(48000, 64); err != nil {
		panic(err)
	}

	params := engine.Params()
	if err := params.SetMix(0); err != nil {
		panic(err)
	}

	if err := params.SetOutputGainDB(6); err != nil {
		panic(err)
	}

	block := [][]float64{{1, 0.5, 0, -1}}
	if err := engine.ProcessBlock(block); err != nil {
		panic(err)
	}

	fmt.Printf("%.4f\n", block[0])
	// Output:
	// [1.9953 0.9976 0.0000 -1.9953]
}

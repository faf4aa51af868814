// Copyright 2025 SphConv Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package spherical_test

import (
	"fmt"

	"github.com/sphconv-ml/sphconv/internal/tensor"
	"github.com/sphconv-ml/sphconv/spherical"
)

// ExampleNewS2Convolution runs one spherical coefficient through a
// deterministic degree-0 convolution.
func ExampleNewS2Convolution() {
	conv := spherical.NewS2Convolution(1, 1, 0, 1, 1, true)
	conv.Weight(0).Tensor().Data()[0] = 1.0
	conv.Bias().Tensor().Data()[0] = 0.5

	in := spherical.NewMap()
	in.Set(0, tensor.Full(tensor.Shape{1, 1, 1, 1, 1}, 2.0))

	out, _, err := conv.Forward(in)
	if err != nil {
		panic(err)
	}
	y, _ := out.Get(0)
	fmt.Println(y.At(0, 0, 0, 0, 0, 0))
	// Output: 2.5
}

// ExampleCoupling shows the scalar coupling coefficient.
func ExampleCoupling() {
	c := spherical.Coupling(0, 0, 0)
	fmt.Println(c.Shape(), c.At(0, 0, 0))
	// Output: [1 1 1] 1
}

// ExampleAdmissible checks the triangle rule.
func ExampleAdmissible() {
	fmt.Println(spherical.Admissible(2, 2, 4), spherical.Admissible(0, 2, 6))
	// Output: true false
}

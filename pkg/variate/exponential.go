/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package variate turns a uniform random source into the exponentially
// distributed delays driving arrivals and service completions.
package variate

import (
	"fmt"
	"math"
)

type Generator struct {
	source UniformSource
	draws  uint64
}

func NewGenerator(source UniformSource) *Generator {
	return &Generator{
		source: source,
	}
}

// Exponential returns a delay distributed as Exp(rate), computed as
// -ln(u)/rate.  Draws of u outside the open interval (0, 1) are discarded, so
// the result is always strictly positive and finite.  A non-positive or
// non-finite rate is a programming error and panics; rates are validated when
// a simulation is configured.
func (g *Generator) Exponential(rate float64) float64 {
	if !(rate > 0) || math.IsInf(rate, 1) {
		panic(fmt.Sprintf("exponential variate requested with invalid rate %v", rate))
	}

	for {
		u := g.source.Float64()
		g.draws++
		if u <= 0 || u >= 1 {
			continue
		}
		return -math.Log(u) / rate
	}
}

// Draws reports how many uniform values have been consumed from the source.
func (g *Generator) Draws() uint64 {
	return g.draws
}

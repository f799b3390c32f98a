/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package variate

import (
	"math/rand"

	"github.com/iti/rngstream"
)

// UniformSource yields uniformly distributed values in [0, 1).  Implementations
// may also exclude 0, the Generator copes with either.
type UniformSource interface {
	Float64() float64
}

type seededSource struct {
	rand *rand.Rand
}

func (s *seededSource) Float64() float64 {
	return s.rand.Float64()
}

// NewSeededSource returns a reproducible source backed by math/rand.  Two
// sources created with the same seed produce identical sequences.
func NewSeededSource(seed int64) UniformSource {
	return &seededSource{
		rand: rand.New(rand.NewSource(seed)),
	}
}

type streamSource struct {
	stream *rngstream.RngStream
}

func (s *streamSource) Float64() float64 {
	return s.stream.RandU01()
}

// NewStreamSource returns a source drawing from a fresh MRG32k3a stream.
// Streams are handed out in creation order, so a program creating its streams
// in the same order sees the same sequences on every execution.
func NewStreamSource(name string) UniformSource {
	return &streamSource{
		stream: rngstream.New(name),
	}
}

/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package simulation

import (
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/mm1"
	"github.com/hyperledger-labs/queuesim/pkg/variate"
)

// Source names a kind of uniform pseudorandom source.
type Source string

const (
	// SourceMath draws from math/rand seeded with Spec.Seed.
	SourceMath Source = "math"

	// SourceStream draws from an MRG32k3a stream.  Streams are handed out in
	// creation order, Spec.Seed is ignored.
	SourceStream Source = "stream"
)

// Sources lists the accepted source names.
var Sources = []string{string(SourceMath), string(SourceStream)}

// Spec is the complete description of a simulation run.
type Spec struct {
	ArrivalRate float64
	ServiceRate float64

	// Samples is the number of served customers after which the run halts.
	Samples uint64

	Seed   int64
	Source Source
}

func (s Spec) Rates() mm1.Rates {
	return mm1.Rates{
		ArrivalRate: s.ArrivalRate,
		ServiceRate: s.ServiceRate,
	}
}

// Validate rejects specs which could not produce a report.  A spec passing
// validation never fails at run time for configuration reasons.
func (s Spec) Validate() error {
	if err := s.Rates().Validate(); err != nil {
		return err
	}

	if s.Samples == 0 {
		return errors.WithMessage(mm1.ErrInvalidConfig, "sample count must be positive")
	}

	switch s.Source {
	case SourceMath, SourceStream:
	default:
		return errors.WithMessagef(mm1.ErrInvalidConfig, "unknown uniform source %q", s.Source)
	}

	return nil
}

func (s Spec) newSource(streamName string) variate.UniformSource {
	if s.Source == SourceStream {
		return variate.NewStreamSource(streamName)
	}
	return variate.NewSeededSource(s.Seed)
}

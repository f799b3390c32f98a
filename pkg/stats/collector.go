/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package stats observes a running model, accumulates the statistics of every
// served customer, and halts the run once enough customers were served.
package stats

import (
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/des"
	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/mm1"
)

// ErrInvariantBreach is wrapped by errors reporting served customers that
// were not handed over one at a time, or handed over in an impossible state.
var ErrInvariantBreach = errors.New("collector invariant breached")

// ServedSource hands over the customers served since the previous call.
type ServedSource interface {
	DrainServed() []mm1.Customer
}

// Sink receives every counted customer exactly once, in completion order.
type Sink interface {
	Record(customer mm1.Customer) error
}

type Collector struct {
	Accumulator

	target  uint64
	theory  Theory
	source  ServedSource
	sink    Sink
	logger  logging.Logger
	simTime float64
}

// NewCollector creates a collector halting the run after target customers.
// The sink is optional.
func NewCollector(target uint64, theory Theory, source ServedSource, sink Sink, logger logging.Logger) (*Collector, error) {
	if target == 0 {
		return nil, errors.WithMessage(mm1.ErrInvalidConfig, "target sample count must be positive")
	}
	if source == nil {
		return nil, errors.WithMessage(mm1.ErrInvalidConfig, "collector requires a source of served customers")
	}
	if logger == nil {
		logger = logging.NilLogger
	}

	return &Collector{
		target: target,
		theory: theory,
		source: source,
		sink:   sink,
		logger: logger,
	}, nil
}

// Observe is invoked after every processed event and matches des.Observer.
func (c *Collector) Observe(event *des.Event) (des.Verdict, error) {
	c.simTime = event.Time

	served := c.source.DrainServed()
	switch {
	case len(served) == 0:
		return des.Continue, nil
	case len(served) > 1:
		return des.Halt, errors.WithMessagef(ErrInvariantBreach, "%d customers were served by a single event", len(served))
	case c.Count() >= c.target:
		return des.Halt, errors.WithMessagef(ErrInvariantBreach, "customer %d was served after the target of %d was reached", served[0].ID, c.target)
	}

	customer := served[0]
	if err := customer.Check(); err != nil {
		return des.Halt, errors.WithMessagef(ErrInvariantBreach, "%v", err)
	}

	if c.sink != nil {
		if err := c.sink.Record(customer); err != nil {
			return des.Halt, errors.WithMessagef(err, "could not record customer %d", customer.ID)
		}
	}

	c.Add(customer)

	if c.Count() == c.target {
		c.logger.Log(logging.LevelInfo, "target sample size reached", "samples", c.target, "simTime", c.simTime)
		return des.Halt, nil
	}

	return des.Continue, nil
}

// Done reports whether the target was reached.
func (c *Collector) Done() bool {
	return c.Count() == c.target
}

// SimTime is the time of the last observed event.
func (c *Collector) SimTime() float64 {
	return c.simTime
}

func (c *Collector) Report() (*Report, error) {
	return c.Accumulator.Report(c.theory, c.simTime)
}

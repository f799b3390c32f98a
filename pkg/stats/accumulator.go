/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package stats

import (
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/mm1"
)

// Report pairs the simulated means with their closed-form counterparts.
type Report struct {
	Theory `yaml:",inline"`

	Samples uint64  `yaml:"samples"`
	SimTime float64 `yaml:"sim_time"`

	MeanWait  float64 `yaml:"mean_wait"`
	MeanQueue float64 `yaml:"mean_queue"`

	MeanService float64 `yaml:"mean_service"`
	MeanSojourn float64 `yaml:"mean_sojourn"`
	MaxQueue    int     `yaml:"max_queue"`

	// WaitError and QueueError are relative to the closed-form values.
	WaitError  float64 `yaml:"wait_error"`
	QueueError float64 `yaml:"queue_error"`
}

// Accumulator sums the per-customer quantities of served customers.  The sums
// only depend on the customers added and their order, so replaying a recorded
// trace yields the same report.
type Accumulator struct {
	count      uint64
	queueSum   uint64
	waitSum    float64
	serviceSum float64
	sojournSum float64
	maxQueue   int
}

func (a *Accumulator) Add(customer mm1.Customer) {
	a.count++
	a.queueSum += uint64(customer.QueueOnArrival)
	a.waitSum += customer.Wait()
	a.serviceSum += customer.ServiceTime()
	a.sojournSum += customer.Sojourn()
	if customer.QueueOnArrival > a.maxQueue {
		a.maxQueue = customer.QueueOnArrival
	}
}

func (a *Accumulator) Count() uint64 {
	return a.count
}

// Report computes the means.  It fails if no customer was added.
func (a *Accumulator) Report(theory Theory, simTime float64) (*Report, error) {
	if a.count == 0 {
		return nil, errors.Errorf("no customers were served, cannot compute means")
	}

	n := float64(a.count)
	report := &Report{
		Theory:      theory,
		Samples:     a.count,
		SimTime:     simTime,
		MeanWait:    a.waitSum / n,
		MeanQueue:   float64(a.queueSum) / n,
		MeanService: a.serviceSum / n,
		MeanSojourn: a.sojournSum / n,
		MaxQueue:    a.maxQueue,
	}
	report.WaitError = relativeError(report.MeanWait, theory.ExpectedMeanWait)
	report.QueueError = relativeError(report.MeanQueue, theory.ExpectedMeanQueue)

	return report, nil
}

func relativeError(observed, expected float64) float64 {
	if expected == 0 {
		return 0
	}
	return (observed - expected) / expected
}

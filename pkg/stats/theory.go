/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package stats

import (
	"github.com/hyperledger-labs/queuesim/pkg/mm1"
)

// Theory holds the closed-form steady state of an M/M/1 queue.
type Theory struct {
	ArrivalRate float64 `yaml:"arrival_rate"`
	ServiceRate float64 `yaml:"service_rate"`

	// Utilization is rho, the fraction of time the server is busy.
	Utilization float64 `yaml:"utilization"`

	ExpectedMeanWait     float64 `yaml:"expected_mean_wait"`
	ExpectedMeanQueue    float64 `yaml:"expected_mean_queue"`
	ExpectedMeanSojourn  float64 `yaml:"expected_mean_sojourn"`
	ExpectedMeanInSystem float64 `yaml:"expected_mean_in_system"`
}

// Solve computes the steady state for the given rates.  It fails for rates
// without a steady state.
func Solve(arrivalRate, serviceRate float64) (Theory, error) {
	rates := mm1.Rates{ArrivalRate: arrivalRate, ServiceRate: serviceRate}
	if err := rates.Validate(); err != nil {
		return Theory{}, err
	}

	rho := arrivalRate / serviceRate
	wait := rho / (serviceRate - arrivalRate)

	return Theory{
		ArrivalRate:          arrivalRate,
		ServiceRate:          serviceRate,
		Utilization:          rho,
		ExpectedMeanWait:     wait,
		ExpectedMeanQueue:    arrivalRate * wait,
		ExpectedMeanSojourn:  1 / (serviceRate - arrivalRate),
		ExpectedMeanInSystem: rho / (1 - rho),
	}, nil
}

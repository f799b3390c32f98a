/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package simulation

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/mm1"
	"github.com/hyperledger-labs/queuesim/pkg/stats"
	"github.com/hyperledger-labs/queuesim/pkg/variate"
)

// Confidence is the two-sided confidence level of the replication estimates.
const Confidence = 0.95

// Estimate summarizes one quantity across replications.
type Estimate struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`

	// HalfWidth is the half width of the Student-t confidence interval
	// around Mean.  It is zero for a single replication.
	HalfWidth float64 `yaml:"half_width"`
}

// Contains reports whether v lies within the confidence interval.
func (e Estimate) Contains(v float64) bool {
	return math.Abs(v-e.Mean) <= e.HalfWidth
}

func (e Estimate) String() string {
	return fmt.Sprintf("%.6g ± %.3g", e.Mean, e.HalfWidth)
}

func estimate(values []float64) Estimate {
	if len(values) < 2 {
		return Estimate{Mean: values[0]}
	}

	mean, stdDev := stat.MeanStdDev(values, nil)
	t := distuv.StudentsT{
		Mu:    0,
		Sigma: 1,
		Nu:    float64(len(values) - 1),
	}

	return Estimate{
		Mean:      mean,
		StdDev:    stdDev,
		HalfWidth: t.Quantile(1-(1-Confidence)/2) * stat.StdErr(stdDev, float64(len(values))),
	}
}

// Summary aggregates independent replications of one spec.
type Summary struct {
	Theory stats.Theory `yaml:"theory"`

	// Reports are ordered by replication index.
	Reports []*stats.Report `yaml:"reports"`

	MeanWait  Estimate `yaml:"mean_wait"`
	MeanQueue Estimate `yaml:"mean_queue"`
	Events    uint64   `yaml:"events"`
}

// RunReplications runs n independent replications of spec on at most
// parallelism goroutines.  Replication i uses seed spec.Seed+i, or the
// stream named "replication-i".  The first failing replication cancels the
// others.
func RunReplications(ctx context.Context, spec Spec, n, parallelism int, opts ...RunOpt) (*Summary, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errors.WithMessagef(mm1.ErrInvalidConfig, "replication count must be positive, got %d", n)
	}
	if parallelism < 1 {
		return nil, errors.WithMessagef(mm1.ErrInvalidConfig, "parallelism must be positive, got %d", parallelism)
	}
	if parallelism > n {
		parallelism = n
	}

	o := parseOpts(opts)
	if o.sink != nil && n > 1 {
		return nil, errors.WithMessage(mm1.ErrInvalidConfig, "a sink can only record a single replication")
	}

	theory, err := stats.Solve(spec.ArrivalRate, spec.ServiceRate)
	if err != nil {
		return nil, err
	}

	// Streams are carved out of one sequence in creation order, so sources
	// are created before any replication starts.
	specs := make([]Spec, n)
	sources := make([]variate.UniformSource, n)
	for i := range specs {
		specs[i] = spec
		specs[i].Seed = spec.Seed + int64(i)
		sources[i] = specs[i].newSource(fmt.Sprintf("replication-%d", i))
	}

	logger := logging.Synchronize(o.logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, n)
	errs := make([]error, n)
	indexC := make(chan int)

	var waitGroup sync.WaitGroup
	waitGroup.Add(parallelism)
	for w := 0; w < parallelism; w++ {
		go func() {
			defer waitGroup.Done()
			for i := range indexC {
				ro := o
				ro.logger = logging.Decorate(logger, "", "replication", i)

				results[i], errs[i] = run(ctx, specs[i], sources[i], ro)
				if errs[i] != nil {
					cancel()
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		indexC <- i
	}
	close(indexC)
	waitGroup.Wait()

	for i, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, errors.WithMessagef(err, "replication %d failed", i)
		}
	}
	for i, err := range errs {
		if err != nil {
			return nil, errors.WithMessagef(err, "replication %d failed", i)
		}
	}

	summary := &Summary{
		Theory:  theory,
		Reports: make([]*stats.Report, n),
	}
	waits := make([]float64, n)
	queues := make([]float64, n)
	for i, result := range results {
		summary.Reports[i] = result.Report
		summary.Events += result.Events
		waits[i] = result.Report.MeanWait
		queues[i] = result.Report.MeanQueue
	}
	summary.MeanWait = estimate(waits)
	summary.MeanQueue = estimate(queues)

	logger.Log(logging.LevelInfo, "replications finished",
		"replications", n,
		"meanWait", summary.MeanWait.Mean,
		"meanQueue", summary.MeanQueue.Mean,
	)

	return summary, nil
}

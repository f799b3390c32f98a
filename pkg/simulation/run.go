/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package simulation wires a scheduler, a model, and a collector together
// and runs them until the requested number of customers was served.
package simulation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/des"
	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/mm1"
	"github.com/hyperledger-labs/queuesim/pkg/stats"
	"github.com/hyperledger-labs/queuesim/pkg/variate"
)

type RunOpt interface{}

type loggerOpt struct {
	logger logging.Logger
}

// LoggerOpt sets the logger of the run.  By default nothing is logged.
func LoggerOpt(logger logging.Logger) RunOpt {
	return loggerOpt{logger: logger}
}

type sinkOpt struct {
	sink stats.Sink
}

// SinkOpt passes every served customer counted by the run to sink.
func SinkOpt(sink stats.Sink) RunOpt {
	return sinkOpt{sink: sink}
}

type streamNameOpt string

// StreamNameOpt names the stream used by SourceStream runs.
func StreamNameOpt(name string) RunOpt {
	return streamNameOpt(name)
}

// DefaultStreamName names the stream of single SourceStream runs.
const DefaultStreamName = "queuesim"

type runOptions struct {
	logger     logging.Logger
	sink       stats.Sink
	streamName string
}

func parseOpts(opts []RunOpt) runOptions {
	o := runOptions{
		logger:     logging.NilLogger,
		streamName: DefaultStreamName,
	}

	for _, opt := range opts {
		switch v := opt.(type) {
		case loggerOpt:
			if v.logger != nil {
				o.logger = v.logger
			}
		case sinkOpt:
			o.sink = v.sink
		case streamNameOpt:
			o.streamName = string(v)
		}
	}

	return o
}

// Result is the outcome of a single run.
type Result struct {
	Report *stats.Report

	// Events is the number of events processed.
	Events uint64

	// Draws is the number of uniform values consumed.
	Draws uint64
}

// Run simulates the queue described by spec until spec.Samples customers
// were served.  Nothing is scheduled unless spec.Validate succeeds.
func Run(ctx context.Context, spec Spec, opts ...RunOpt) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	o := parseOpts(opts)
	return run(ctx, spec, spec.newSource(o.streamName), o)
}

func run(ctx context.Context, spec Spec, source variate.UniformSource, o runOptions) (*Result, error) {
	theory, err := stats.Solve(spec.ArrivalRate, spec.ServiceRate)
	if err != nil {
		return nil, err
	}

	scheduler := des.NewScheduler()
	generator := variate.NewGenerator(source)

	logger := logging.WithClock(o.logger, scheduler.Now)

	model, err := mm1.NewModel(spec.Rates(), scheduler, generator, logging.Decorate(logger, "model: "))
	if err != nil {
		return nil, err
	}

	collector, err := stats.NewCollector(spec.Samples, theory, model, o.sink, logging.Decorate(logger, "collector: "))
	if err != nil {
		return nil, err
	}

	logger.Log(logging.LevelInfo, "starting simulation",
		"arrivalRate", spec.ArrivalRate,
		"serviceRate", spec.ServiceRate,
		"samples", spec.Samples,
		"source", spec.Source,
	)

	if err := model.Start(); err != nil {
		return nil, err
	}

	outcome, err := scheduler.Run(func(event *des.Event) (des.Verdict, error) {
		if err := ctx.Err(); err != nil {
			return des.Halt, err
		}
		return collector.Observe(event)
	})
	if err != nil {
		logger.Log(logging.LevelError, "simulation aborted", "events", scheduler.Steps(), "err", err)
		return nil, errors.WithMessage(err, "simulation aborted")
	}

	if !collector.Done() {
		return nil, errors.Errorf("simulation %s after %d events with only %d of %d customers served", outcome, scheduler.Steps(), collector.Count(), spec.Samples)
	}

	report, err := collector.Report()
	if err != nil {
		return nil, err
	}

	logger.Log(logging.LevelInfo, "simulation finished",
		"events", scheduler.Steps(),
		"meanWait", report.MeanWait,
		"meanQueue", report.MeanQueue,
	)

	return &Result{
		Report: report,
		Events: scheduler.Steps(),
		Draws:  generator.Draws(),
	}, nil
}

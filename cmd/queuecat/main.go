/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// queuecat is a utility for reviewing the served-customer traces written by
// queuesim.  It prints the recorded customers and is able to recompute the
// statistics of the traced run from the trace alone.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/hyperledger-labs/queuesim/pkg/mm1"
	"github.com/hyperledger-labs/queuesim/pkg/stats"
	"github.com/hyperledger-labs/queuesim/pkg/tracelog"
)

type arguments struct {
	trace       string
	from        uint64
	to          uint64
	summary     bool
	arrivalRate float64
	serviceRate float64
}

func (a *arguments) execute(output io.Writer) error {
	log, err := tracelog.Open(a.trace)
	if err != nil {
		return err
	}
	defer log.Close()

	if a.summary {
		return a.summarize(log, output)
	}

	return log.Range(a.from, a.to, func(c mm1.Customer) error {
		_, err := fmt.Fprintf(output, "id=%d arrival=%.6g queue=%d begin=%.6g end=%.6g wait=%.6g\n",
			c.ID, c.ArrivalTime, c.QueueOnArrival, c.ServiceBegin, c.ServiceEnd, c.Wait())
		return err
	})
}

func (a *arguments) summarize(log *tracelog.Log, output io.Writer) error {
	theory, err := stats.Solve(a.arrivalRate, a.serviceRate)
	if err != nil {
		return err
	}

	accumulator := &stats.Accumulator{}
	var last mm1.Customer
	err = log.Range(a.from, a.to, func(c mm1.Customer) error {
		if err := c.Check(); err != nil {
			return errors.WithMessage(err, "trace holds an impossible customer")
		}
		accumulator.Add(c)
		last = c
		return nil
	})
	if err != nil {
		return err
	}

	report, err := accumulator.Report(theory, last.ServiceEnd)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "samples=%d\n", report.Samples)
	fmt.Fprintf(output, "mean_wait=%.6g expected_mean_wait=%.6g\n", report.MeanWait, report.ExpectedMeanWait)
	fmt.Fprintf(output, "mean_queue=%.6g expected_mean_queue=%.6g\n", report.MeanQueue, report.ExpectedMeanQueue)
	return nil
}

func parseArgs(args []string) (*arguments, error) {
	app := kingpin.New("queuecat", "Utility for reviewing queuesim traces.")
	trace := app.Arg("trace", "The trace directory to read.").Required().String()
	from := app.Flag("from", "Position of the first customer to report.").Default("0").Uint64()
	to := app.Flag("to", "Position of the last customer to report (defaults to the end of the trace).").Default(fmt.Sprint(uint64(1<<64 - 1))).Uint64()
	summary := app.Flag("summary", "Recompute the statistics of the selected customers instead of listing them.").Bool()
	arrivalRate := app.Flag("arrivalRate", "Arrival rate of the traced run, for --summary.").Default("1").Float64()
	serviceRate := app.Flag("serviceRate", "Service rate of the traced run, for --summary.").Default("2").Float64()

	_, err := app.Parse(args)
	if err != nil {
		return nil, err
	}

	if *from > *to {
		return nil, errors.Errorf("--from %d is past --to %d", *from, *to)
	}

	return &arguments{
		trace:       *trace,
		from:        *from,
		to:          *to,
		summary:     *summary,
		arrivalRate: *arrivalRate,
		serviceRate: *serviceRate,
	}, nil
}

func main() {
	kingpin.Version("0.0.1")
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("%s, try --help", err)
	}
	if err := args.execute(os.Stdout); err != nil {
		kingpin.Fatalf("%s", err)
	}
}

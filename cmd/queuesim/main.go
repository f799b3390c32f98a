/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// queuesim simulates an M/M/1 queue and compares the simulated mean wait and
// mean queue length with their closed-form values.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"github.com/hyperledger-labs/queuesim/pkg/config"
	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/profiling"
	"github.com/hyperledger-labs/queuesim/pkg/resultstore"
	"github.com/hyperledger-labs/queuesim/pkg/simulation"
	"github.com/hyperledger-labs/queuesim/pkg/stats"
	"github.com/hyperledger-labs/queuesim/pkg/tracelog"
)

const (
	runCommand     = "run"
	theoryCommand  = "theory"
	historyCommand = "history"
)

type arguments struct {
	command string
	config  *config.Config

	yamlOutput bool
	cpuProfile string
	memProfile string

	// logOutput receives log messages, the report goes to the writer passed
	// to execute.
	logOutput io.Writer
}

func (a *arguments) execute(output io.Writer) error {
	level, err := a.config.Level()
	if err != nil {
		return err
	}
	logger := logging.NewWriterLogger(a.logOutput, level)

	switch a.command {
	case theoryCommand:
		theory, err := stats.Solve(a.config.Simulation.ArrivalRate, a.config.Simulation.ServiceRate)
		if err != nil {
			return err
		}
		return a.print(output, theory, func(w io.Writer) { printTheory(w, theory) })
	case historyCommand:
		return a.history(output, logger)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return a.run(ctx, output, logger)
	}
}

func (a *arguments) run(ctx context.Context, output io.Writer, logger logging.Logger) (err error) {
	profiler := profiling.New(logger)
	defer func() {
		if stopErr := profiler.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()
	if a.cpuProfile != "" {
		if err := profiler.Start(profiling.CPU, a.cpuProfile, 0); err != nil {
			return err
		}
	}
	if a.memProfile != "" {
		if err := profiler.Start("heap", a.memProfile, 0); err != nil {
			return err
		}
	}

	spec := a.config.Spec()
	entry := &resultstore.Entry{
		Name:     a.config.Name,
		Recorded: time.Now().UTC(),
		Seed:     spec.Seed,
		Source:   string(spec.Source),
	}
	if entry.Name == "" {
		entry.Name = entry.Recorded.Format("20060102T150405.000")
	}

	if a.config.Replications > 1 {
		summary, err := simulation.RunReplications(ctx, spec, a.config.Replications, a.config.Parallelism, simulation.LoggerOpt(logger))
		if err != nil {
			return err
		}
		entry.Summary = summary
		if err := a.print(output, summary, func(w io.Writer) { printSummary(w, summary) }); err != nil {
			return err
		}
	} else {
		opts := []simulation.RunOpt{simulation.LoggerOpt(logger)}
		if a.config.Trace != "" {
			trace, err := tracelog.Create(a.config.Trace)
			if err != nil {
				return err
			}
			defer trace.Close()
			opts = append(opts, simulation.SinkOpt(trace))
		}

		result, err := simulation.Run(ctx, spec, opts...)
		if err != nil {
			return err
		}
		entry.Report = result.Report
		if err := a.print(output, result.Report, func(w io.Writer) { printReport(w, result) }); err != nil {
			return err
		}
	}

	if a.config.Store == "" {
		return nil
	}

	store, err := resultstore.Open(a.config.Store, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Put(entry); err != nil {
		return errors.WithMessage(err, "could not archive report")
	}
	logger.Log(logging.LevelInfo, "report archived", "name", entry.Name, "store", a.config.Store)

	return nil
}

func (a *arguments) history(output io.Writer, logger logging.Logger) error {
	if a.config.Store == "" {
		return errors.Errorf("history requires --store")
	}

	store, err := resultstore.Open(a.config.Store, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if a.config.Name == "" {
		names, err := store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(output, name)
		}
		return nil
	}

	entry, err := store.Get(a.config.Name)
	if err != nil {
		return err
	}
	return printYAML(output, entry)
}

func (a *arguments) print(output io.Writer, value interface{}, text func(io.Writer)) error {
	if a.yamlOutput {
		return printYAML(output, value)
	}

	w := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	text(w)
	return w.Flush()
}

func printYAML(output io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(output)
	if err := encoder.Encode(value); err != nil {
		return errors.WithMessage(err, "could not encode output")
	}
	return encoder.Close()
}

func printTheory(w io.Writer, theory stats.Theory) {
	fmt.Fprintf(w, "utilization\t%.6g\n", theory.Utilization)
	fmt.Fprintf(w, "expected mean wait\t%.6g\n", theory.ExpectedMeanWait)
	fmt.Fprintf(w, "expected mean queue length\t%.6g\n", theory.ExpectedMeanQueue)
	fmt.Fprintf(w, "expected mean sojourn\t%.6g\n", theory.ExpectedMeanSojourn)
	fmt.Fprintf(w, "expected mean in system\t%.6g\n", theory.ExpectedMeanInSystem)
}

func printReport(w io.Writer, result *simulation.Result) {
	report := result.Report
	fmt.Fprintf(w, "samples\t%d\n", report.Samples)
	fmt.Fprintf(w, "simulated time\t%.6g\n", report.SimTime)
	fmt.Fprintf(w, "events\t%d\n", result.Events)
	fmt.Fprintf(w, "utilization\t%.6g\n", report.Utilization)
	fmt.Fprintf(w, "mean wait\t%.6g\t(expected %.6g, error %+.2f%%)\n", report.MeanWait, report.ExpectedMeanWait, 100*report.WaitError)
	fmt.Fprintf(w, "mean queue length\t%.6g\t(expected %.6g, error %+.2f%%)\n", report.MeanQueue, report.ExpectedMeanQueue, 100*report.QueueError)
	fmt.Fprintf(w, "mean service\t%.6g\n", report.MeanService)
	fmt.Fprintf(w, "mean sojourn\t%.6g\t(expected %.6g)\n", report.MeanSojourn, report.ExpectedMeanSojourn)
	fmt.Fprintf(w, "max queue on arrival\t%d\n", report.MaxQueue)
}

func printSummary(w io.Writer, summary *simulation.Summary) {
	fmt.Fprintf(w, "replications\t%d\n", len(summary.Reports))
	fmt.Fprintf(w, "events\t%d\n", summary.Events)
	fmt.Fprintf(w, "utilization\t%.6g\n", summary.Theory.Utilization)
	fmt.Fprintf(w, "mean wait\t%s\t(expected %.6g)\n", summary.MeanWait, summary.Theory.ExpectedMeanWait)
	fmt.Fprintf(w, "mean queue length\t%s\t(expected %.6g)\n", summary.MeanQueue, summary.Theory.ExpectedMeanQueue)
}

// overrides collects the settings given on the command line, which take
// precedence over the config file regardless of flag order.
type overrides []func(*config.Config)

func (o *overrides) add(apply func(*config.Config)) kingpin.Action {
	return func(*kingpin.ParseContext) error {
		*o = append(*o, apply)
		return nil
	}
}

func parseArgs(args []string) (*arguments, error) {
	app := kingpin.New("queuesim", "Discrete-event simulation of an M/M/1 queue.")

	var (
		o          overrides
		configFile string
		sim        config.Simulation
		cfg        config.Config
		a          = &arguments{logOutput: os.Stderr}
	)

	app.Flag("config", "YAML config file, command line flags take precedence.").StringVar(&configFile)
	app.Flag("logLevel", "Minimum level of log messages.").
		Action(o.add(func(c *config.Config) { c.LogLevel = cfg.LogLevel })).
		EnumVar(&cfg.LogLevel, "debug", "info", "warn", "error")
	app.Flag("yaml", "Print results as YAML.").BoolVar(&a.yamlOutput)

	rates := func(cmd *kingpin.CmdClause) {
		cmd.Flag("arrivalRate", "Mean arrivals per unit of time.").
			Action(o.add(func(c *config.Config) { c.Simulation.ArrivalRate = sim.ArrivalRate })).
			Float64Var(&sim.ArrivalRate)
		cmd.Flag("serviceRate", "Mean completions per unit of busy time.").
			Action(o.add(func(c *config.Config) { c.Simulation.ServiceRate = sim.ServiceRate })).
			Float64Var(&sim.ServiceRate)
	}

	run := app.Command(runCommand, "Simulate until enough customers were served.").Default()
	rates(run)
	run.Flag("samples", "Served customers after which the run halts.").
		Action(o.add(func(c *config.Config) { c.Simulation.Samples = sim.Samples })).
		Uint64Var(&sim.Samples)
	run.Flag("seed", "Seed of the math source.").
		Action(o.add(func(c *config.Config) { c.Simulation.Seed = sim.Seed })).
		Int64Var(&sim.Seed)
	run.Flag("source", "Uniform pseudorandom source.").
		Action(o.add(func(c *config.Config) { c.Simulation.Source = sim.Source })).
		EnumVar(&sim.Source, simulation.Sources...)
	run.Flag("replications", "Independent replications to run.").
		Action(o.add(func(c *config.Config) { c.Replications = cfg.Replications })).
		IntVar(&cfg.Replications)
	run.Flag("parallelism", "Replications running concurrently.").
		Action(o.add(func(c *config.Config) { c.Parallelism = cfg.Parallelism })).
		IntVar(&cfg.Parallelism)
	run.Flag("trace", "Directory recording every served customer.").
		Action(o.add(func(c *config.Config) { c.Trace = cfg.Trace })).
		StringVar(&cfg.Trace)
	run.Flag("cpuProfile", "Write a CPU profile to this file.").StringVar(&a.cpuProfile)
	run.Flag("memProfile", "Write a heap profile to this file.").StringVar(&a.memProfile)

	theory := app.Command(theoryCommand, "Print the closed-form steady state.")
	rates(theory)

	history := app.Command(historyCommand, "List archived reports, or show the one given by --name.")

	for _, cmd := range []*kingpin.CmdClause{run, history} {
		cmd.Flag("store", "Directory of the report archive.").
			Action(o.add(func(c *config.Config) { c.Store = cfg.Store })).
			StringVar(&cfg.Store)
		cmd.Flag("name", "Name of the report in the archive.").
			Action(o.add(func(c *config.Config) { c.Name = cfg.Name })).
			StringVar(&cfg.Name)
	}

	command, err := app.Parse(args)
	if err != nil {
		return nil, err
	}
	a.command = command

	a.config = config.Default()
	if configFile != "" {
		a.config, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	}
	for _, apply := range o {
		apply(a.config)
	}

	if err := a.config.Validate(); err != nil {
		if command == runCommand {
			return nil, err
		}
		if _, levelErr := a.config.Level(); levelErr != nil {
			return nil, levelErr
		}
	}

	return a, nil
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

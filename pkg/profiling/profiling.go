/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package profiling collects pprof profiles of long simulation runs.
package profiling

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/logging"
)

// CPU is the name of the CPU profile.  Any other name is looked up with
// pprof.Lookup when the profiler stops, "heap" being the usual one.
const CPU = "cpu"

// Profiler dumps each started profile to its file when stopped.
type Profiler struct {
	logger logging.Logger

	// outputs maps profile names to output file names.
	outputs map[string]string

	// cpuFile is the open file pprof continuously writes CPU samples to.
	cpuFile *os.File
}

func New(logger logging.Logger) *Profiler {
	if logger == nil {
		logger = logging.NilLogger
	}
	return &Profiler{
		logger:  logger,
		outputs: map[string]string{},
	}
}

// Start starts the profile called name, to be written to fileName by Stop.
// The "block" and "mutex" profiles are sampled at the given rate.
func (p *Profiler) Start(name, fileName string, rate int) error {
	if _, ok := p.outputs[name]; ok {
		return errors.Errorf("profile %s already started", name)
	}

	switch name {
	case "block":
		runtime.SetBlockProfileRate(rate)
	case "mutex":
		runtime.SetMutexProfileFraction(rate)
	case CPU:
		f, err := os.Create(fileName)
		if err != nil {
			return errors.WithMessagef(err, "could not create CPU profile %s", fileName)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return errors.WithMessage(err, "could not start CPU profile")
		}
		p.cpuFile = f
	default:
		if pprof.Lookup(name) == nil {
			return errors.Errorf("unknown profile %s", name)
		}
	}

	p.outputs[name] = fileName
	p.logger.Log(logging.LevelInfo, "started profiler", "name", name, "file", fileName)
	return nil
}

// Stop writes all started profiles.  It attempts every profile and returns
// the first error encountered.
func (p *Profiler) Stop() error {
	runtime.SetBlockProfileRate(0)
	runtime.SetMutexProfileFraction(0)

	var firstErr error
	for name, fileName := range p.outputs {
		var err error
		if name == CPU {
			pprof.StopCPUProfile()
			err = p.cpuFile.Close()
			p.cpuFile = nil
		} else {
			err = dumpProfile(name, fileName)
		}

		if err != nil {
			p.logger.Log(logging.LevelError, "could not write profile", "name", name, "file", fileName, "err", err)
			if firstErr == nil {
				firstErr = errors.WithMessagef(err, "could not write profile %s", name)
			}
		} else {
			p.logger.Log(logging.LevelInfo, "profile data written", "name", name, "file", fileName)
		}
		delete(p.outputs, name)
	}

	return firstErr
}

func dumpProfile(name, fileName string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}

	if name == "heap" {
		runtime.GC()
	}

	if err := pprof.Lookup(name).WriteTo(f, 0); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import "fmt"

type decoratedLogger struct {
	logger Logger
	prefix string
	args   []interface{}
}

func (dl *decoratedLogger) Log(level LogLevel, text string, args ...interface{}) {
	passedArgs := make([]interface{}, 0, len(dl.args)+len(args))
	passedArgs = append(passedArgs, dl.args...)
	passedArgs = append(passedArgs, args...)
	dl.logger.Log(level, fmt.Sprintf("%s%s", dl.prefix, text), passedArgs...)
}

// Decorate returns a Logger prefixing every message with prefix and prepending
// the given key/value pairs to the ones of every message.
func Decorate(logger Logger, prefix string, args ...interface{}) Logger {
	if logger == NilLogger {
		return logger
	}
	return &decoratedLogger{
		prefix: prefix,
		logger: logger,
		args:   args,
	}
}

type clockedLogger struct {
	logger Logger
	now    func() float64
}

func (cl *clockedLogger) Log(level LogLevel, text string, args ...interface{}) {
	passedArgs := make([]interface{}, 0, len(args)+2)
	passedArgs = append(passedArgs, "simTime", cl.now())
	passedArgs = append(passedArgs, args...)
	cl.logger.Log(level, text, passedArgs...)
}

// WithClock returns a Logger attaching the simulated time reported by now to
// every message.
func WithClock(logger Logger, now func() float64) Logger {
	if logger == NilLogger {
		return logger
	}
	return &clockedLogger{
		logger: logger,
		now:    now,
	}
}

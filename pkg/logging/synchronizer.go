/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import "sync"

type synchronizedLogger struct {
	logger Logger
	mutex  sync.Mutex
}

func (sl *synchronizedLogger) Log(level LogLevel, text string, args ...interface{}) {
	sl.mutex.Lock()
	sl.logger.Log(level, text, args...)
	sl.mutex.Unlock()
}

// Synchronize serializes all calls to logger.  Replications running on
// separate goroutines share one synchronized logger.
func Synchronize(logger Logger) Logger {
	if _, ok := logger.(*synchronizedLogger); ok {
		return logger
	}
	if logger == NilLogger {
		return logger
	}
	return &synchronizedLogger{
		logger: logger,
	}
}

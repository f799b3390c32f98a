/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Logger is minimal logging interface designed to be easily adaptable to any
// logging library.
type Logger interface {
	// Log is invoked with the log level, the log message, and key/value pairs
	// of any relevant log details. The keys are always strings, while the
	// values are unspecified.
	Log(level LogLevel, text string, args ...interface{})
}

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps the textual level names accepted on the command line
// and in configuration files to a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Errorf("unknown log level %q", name)
	}
}

// writerLogger writes every message of at least its level as a single
// 'text k=v k=v' line to its output.
type writerLogger struct {
	level  LogLevel
	output io.Writer
}

// NewWriterLogger returns a Logger writing all messages of the given level and
// above to output.  It is not safe for concurrent use, wrap it with Synchronize
// when sharing it between goroutines.
func NewWriterLogger(output io.Writer, level LogLevel) Logger {
	return &writerLogger{
		level:  level,
		output: output,
	}
}

func (l *writerLogger) Log(level LogLevel, text string, args ...interface{}) {
	if level < l.level {
		return
	}

	fmt.Fprint(l.output, text)
	for i := 0; i < len(args); i++ {
		if i+1 < len(args) {
			switch args[i+1].(type) {
			case []byte:
				// Print byte arrays in base 16 encoding.
				fmt.Fprintf(l.output, " %s=%x", args[i], args[i+1])
			case float64:
				fmt.Fprintf(l.output, " %s=%.6g", args[i], args[i+1])
			default:
				fmt.Fprintf(l.output, " %s=%v", args[i], args[i+1])
			}
			i++
		} else {
			fmt.Fprintf(l.output, " %s=%%MISSING%%", args[i])
		}
	}
	fmt.Fprintf(l.output, "\n")
}

// The nil logger drops all messages.
type nilLogger struct{}

func (nl *nilLogger) Log(level LogLevel, text string, args ...interface{}) {}

var (
	// ConsoleDebugLogger implements Logger and writes all log messages to stdout.
	ConsoleDebugLogger = NewWriterLogger(os.Stdout, LevelDebug)

	// ConsoleInfoLogger implements Logger and writes all LevelInfo and above log messages to stdout.
	ConsoleInfoLogger = NewWriterLogger(os.Stdout, LevelInfo)

	// ConsoleWarnLogger implements Logger and writes all LevelWarn and above log messages to stdout.
	ConsoleWarnLogger = NewWriterLogger(os.Stdout, LevelWarn)

	// ConsoleErrorLogger implements Logger and writes all LevelError log messages to stdout.
	ConsoleErrorLogger = NewWriterLogger(os.Stdout, LevelError)

	// NilLogger drops all log messages.
	NilLogger Logger = &nilLogger{}
)

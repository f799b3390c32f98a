/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resultstore

import (
	"fmt"
	"strings"

	"github.com/hyperledger-labs/queuesim/pkg/logging"
)

// badgerLogger forwards the messages of the backing database.  Its
// informational chatter is demoted to debug.
type badgerLogger struct {
	logger logging.Logger
}

func (bl badgerLogger) log(level logging.LogLevel, format string, args ...interface{}) {
	bl.logger.Log(level, "badger: "+strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (bl badgerLogger) Errorf(format string, args ...interface{}) {
	bl.log(logging.LevelError, format, args...)
}

func (bl badgerLogger) Warningf(format string, args ...interface{}) {
	bl.log(logging.LevelWarn, format, args...)
}

func (bl badgerLogger) Infof(format string, args ...interface{}) {
	bl.log(logging.LevelDebug, format, args...)
}

func (bl badgerLogger) Debugf(format string, args ...interface{}) {
	bl.log(logging.LevelDebug, format, args...)
}

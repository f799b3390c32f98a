/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package tracelog persists served customers in completion order so that a
// run can be inspected, and its statistics recomputed, after it finished.
package tracelog

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/tidwall/wal"

	"github.com/hyperledger-labs/queuesim/pkg/mm1"
)

type Log struct {
	mutex sync.Mutex
	log   *wal.Log

	// length is the number of recorded customers.  Entry i of the
	// underlying log, which counts from 1, holds the customer at position
	// i-1.
	length uint64
}

// Open opens the trace in the directory at path, creating it if needed.
func Open(path string) (*Log, error) {
	options := *wal.DefaultOptions
	options.NoSync = true

	log, err := wal.Open(path, &options)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not open trace %s", path)
	}

	length, err := log.LastIndex()
	if err != nil {
		log.Close()
		return nil, errors.WithMessage(err, "failed obtaining last trace index")
	}

	return &Log{
		log:    log,
		length: length,
	}, nil
}

// Create opens the trace at path and fails unless it is empty, so that a trace
// never mixes the customers of several runs.
func Create(path string) (*Log, error) {
	l, err := Open(path)
	if err != nil {
		return nil, err
	}

	if l.Len() != 0 {
		length := l.Len()
		l.Close()
		return nil, errors.Errorf("trace %s already holds %d customers", path, length)
	}

	return l, nil
}

func (l *Log) Len() uint64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.length
}

func (l *Log) Append(customer mm1.Customer) error {
	if customer.Stage != mm1.Served {
		return errors.Errorf("customer %d is %s, only served customers are traced", customer.ID, customer.Stage)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.log.Write(l.length+1, MarshalCustomer(customer)); err != nil {
		return errors.WithMessagef(err, "could not append customer %d", customer.ID)
	}
	l.length++

	return nil
}

// Record lets a Log serve as a stats.Sink.
func (l *Log) Record(customer mm1.Customer) error {
	return l.Append(customer)
}

// Range invokes forEach for the customers at positions from through to,
// inclusive, clamped to the recorded ones.  It stops at the first error.
func (l *Log) Range(from, to uint64, forEach func(mm1.Customer) error) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.length == 0 {
		return nil
	}
	if to >= l.length {
		to = l.length - 1
	}
	if from > to {
		return nil
	}

	for i := from; i <= to; i++ {
		data, err := l.log.Read(i + 1)
		if err != nil {
			return errors.WithMessagef(err, "could not read position %d", i)
		}

		customer, err := UnmarshalCustomer(data)
		if err != nil {
			return errors.WithMessagef(err, "could not decode position %d, is the trace corrupt?", i)
		}

		if err := forEach(customer); err != nil {
			return err
		}
	}

	return nil
}

// LoadAll invokes forEach for every recorded customer in order.
func (l *Log) LoadAll(forEach func(mm1.Customer) error) error {
	return l.Range(0, ^uint64(0), forEach)
}

func (l *Log) Sync() error {
	return l.log.Sync()
}

func (l *Log) Close() error {
	if err := l.log.Sync(); err != nil {
		l.log.Close()
		return errors.WithMessage(err, "could not sync trace")
	}
	return l.log.Close()
}

/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mm1

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stage tracks where a customer is in its lifecycle.
type Stage int

const (
	Waiting Stage = iota
	InService
	Served
)

func (s Stage) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case InService:
		return "in-service"
	case Served:
		return "served"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Customer records one arrival's passage through the system.  ServiceBegin is
// meaningful once the customer reached InService, ServiceEnd once it is Served.
type Customer struct {
	// ID is the arrival sequence number, starting at 0.
	ID uint64

	ArrivalTime float64

	// QueueOnArrival is the number of customers found waiting at arrival,
	// not counting the one in service.
	QueueOnArrival int

	ServiceBegin float64
	ServiceEnd   float64
	Stage        Stage
}

// Wait is the time spent in the queue before service began.
func (c *Customer) Wait() float64 {
	return c.ServiceBegin - c.ArrivalTime
}

// ServiceTime is the time spent being served.
func (c *Customer) ServiceTime() float64 {
	return c.ServiceEnd - c.ServiceBegin
}

// Sojourn is the total time spent in the system.
func (c *Customer) Sojourn() float64 {
	return c.ServiceEnd - c.ArrivalTime
}

// Check verifies the timestamps of a served customer are ordered.
func (c *Customer) Check() error {
	switch {
	case c.Stage != Served:
		return errors.Errorf("customer %d is %s, not served", c.ID, c.Stage)
	case c.QueueOnArrival < 0:
		return errors.Errorf("customer %d found a negative queue of %d", c.ID, c.QueueOnArrival)
	case c.ArrivalTime > c.ServiceBegin:
		return errors.Errorf("customer %d began service at %v before arriving at %v", c.ID, c.ServiceBegin, c.ArrivalTime)
	case c.ServiceBegin > c.ServiceEnd:
		return errors.Errorf("customer %d completed service at %v before beginning it at %v", c.ID, c.ServiceEnd, c.ServiceBegin)
	}
	return nil
}

/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mm1 models a single FIFO server fed by Poisson arrivals with
// exponentially distributed service times.  The model drives two event chains
// through a scheduler: arrivals, which reschedule themselves forever, and
// service completions, which run back to back while customers are present.
package mm1

import (
	"math"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/des"
	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/variate"
)

var (
	// ErrInvalidConfig is wrapped by every rejected configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvariantBreach is wrapped by the panics raised when the event
	// sequence violates the queue discipline.
	ErrInvariantBreach = errors.New("queue invariant breached")
)

const (
	arrivalEvent   = "arrival"
	departureEvent = "departure"
)

// Scheduler is the part of the discrete-event scheduler the model relies on.
type Scheduler interface {
	Now() float64
	Schedule(delay float64, name string, action des.Action)
}

type Rates struct {
	// ArrivalRate is the mean number of arrivals per unit of time (lambda).
	ArrivalRate float64

	// ServiceRate is the mean number of completions per unit of busy time (mu).
	ServiceRate float64
}

// Validate rejects rates that are not positive and finite, and rates for
// which the queue grows without bound.
func (r Rates) Validate() error {
	switch {
	case !isPositiveFinite(r.ArrivalRate):
		return errors.WithMessagef(ErrInvalidConfig, "arrival rate must be positive and finite, got %v", r.ArrivalRate)
	case !isPositiveFinite(r.ServiceRate):
		return errors.WithMessagef(ErrInvalidConfig, "service rate must be positive and finite, got %v", r.ServiceRate)
	case r.ArrivalRate >= r.ServiceRate:
		return errors.WithMessagef(ErrInvalidConfig, "arrival rate %v must be below service rate %v for the queue to be stable", r.ArrivalRate, r.ServiceRate)
	}
	return nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

type Model struct {
	rates     Rates
	scheduler Scheduler
	generator *variate.Generator
	logger    logging.Logger

	// system holds the customers present, in arrival order.  The head is in
	// service, or about to enter it.
	system []*Customer

	// served holds completed customers not yet drained, in completion order.
	served []Customer

	arrivals    uint64
	completions uint64
	started     bool
}

func NewModel(rates Rates, scheduler Scheduler, generator *variate.Generator, logger logging.Logger) (*Model, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if scheduler == nil || generator == nil {
		return nil, errors.WithMessage(ErrInvalidConfig, "model requires a scheduler and a generator")
	}
	if logger == nil {
		logger = logging.NilLogger
	}

	return &Model{
		rates:     rates,
		scheduler: scheduler,
		generator: generator,
		logger:    logger,
	}, nil
}

// Start schedules the first arrival.  From then on the arrival chain keeps
// itself alive and the model never stops producing events.
func (m *Model) Start() error {
	if m.started {
		return errors.Errorf("model already started")
	}
	m.started = true
	m.scheduleArrival()
	return nil
}

func (m *Model) scheduleArrival() {
	m.scheduler.Schedule(m.generator.Exponential(m.rates.ArrivalRate), arrivalEvent, m.arrive)
}

func (m *Model) arrive() {
	customer := &Customer{
		ID:             m.arrivals,
		ArrivalTime:    m.scheduler.Now(),
		QueueOnArrival: m.QueueLength(),
		Stage:          Waiting,
	}
	m.arrivals++
	m.system = append(m.system, customer)

	m.logger.Log(logging.LevelDebug, "customer arrived", "id", customer.ID, "queue", customer.QueueOnArrival)

	if len(m.system) == 1 {
		m.beginService()
	}

	m.scheduleArrival()
}

// beginService must only be reached with at least one customer present and
// nobody in service.
func (m *Model) beginService() {
	if len(m.system) == 0 {
		panic(errors.WithMessage(ErrInvariantBreach, "service started on an empty system"))
	}

	head := m.system[0]
	if head.Stage != Waiting {
		panic(errors.WithMessagef(ErrInvariantBreach, "service started for customer %d which is %s", head.ID, head.Stage))
	}

	head.ServiceBegin = m.scheduler.Now()
	head.Stage = InService
	m.scheduler.Schedule(m.generator.Exponential(m.rates.ServiceRate), departureEvent, m.depart)
}

func (m *Model) depart() {
	if len(m.system) == 0 {
		panic(errors.WithMessage(ErrInvariantBreach, "service completed on an empty system"))
	}

	head := m.system[0]
	if head.Stage != InService {
		panic(errors.WithMessagef(ErrInvariantBreach, "service completed for customer %d which is %s", head.ID, head.Stage))
	}

	head.ServiceEnd = m.scheduler.Now()
	head.Stage = Served

	m.system[0] = nil
	m.system = m.system[1:]
	m.served = append(m.served, *head)
	m.completions++

	m.logger.Log(logging.LevelDebug, "customer served", "id", head.ID, "wait", head.Wait())

	if len(m.system) > 0 {
		m.beginService()
	}
}

// Size is the number of customers present, including the one in service.
func (m *Model) Size() int {
	return len(m.system)
}

// QueueLength is the number of customers waiting, excluding the one in service.
func (m *Model) QueueLength() int {
	if len(m.system) == 0 {
		return 0
	}
	return len(m.system) - 1
}

// InService returns a copy of the customer currently being served.
func (m *Model) InService() (Customer, bool) {
	if len(m.system) == 0 || m.system[0].Stage != InService {
		return Customer{}, false
	}
	return *m.system[0], true
}

// Present returns copies of the customers in the system, in arrival order.
func (m *Model) Present() []Customer {
	present := make([]Customer, len(m.system))
	for i, customer := range m.system {
		present[i] = *customer
	}
	return present
}

// Arrivals is the number of customers that ever arrived.
func (m *Model) Arrivals() uint64 {
	return m.arrivals
}

// Completions is the number of customers that ever completed service.
func (m *Model) Completions() uint64 {
	return m.completions
}

// PendingServed is the number of served customers not yet drained.
func (m *Model) PendingServed() int {
	return len(m.served)
}

// DrainServed hands over the served customers accumulated since the last
// drain, in completion order.  The returned customers are copies and are no
// longer referenced by the model.
func (m *Model) DrainServed() []Customer {
	if len(m.served) == 0 {
		return nil
	}
	drained := m.served
	m.served = nil
	return drained
}

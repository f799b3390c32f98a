/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package des is a small discrete-event scheduler.  Actions are registered
// with a delay relative to the current simulated time and executed one at a
// time, to completion, in non-decreasing time order.  Actions scheduled for
// the same instant run in the order they were scheduled.
package des

import (
	"bytes"
	"container/list"
	"fmt"
	"math"
	"runtime/debug"

	"github.com/pkg/errors"
)

// Action is executed when simulated time reaches the time it was scheduled for.
type Action func()

type Event struct {
	// Time is the simulated time at which the event fires.
	Time float64

	// Seq orders events scheduled for the same time.
	Seq uint64

	// Name describes the event in logs and status dumps.
	Name string

	action Action
}

// Verdict is returned by an Observer after every processed event.
type Verdict int

const (
	Continue Verdict = iota
	Halt
)

// Observer is invoked by Run after each processed event.  Returning Halt stops
// the run immediately, leaving any pending events unexecuted.  Returning an
// error aborts the run with that error.
type Observer func(event *Event) (Verdict, error)

// Outcome describes why Run returned without error.
type Outcome int

const (
	// Halted means the observer requested the run to stop.
	Halted Outcome = iota

	// Exhausted means no events remained to be processed.
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Halted:
		return "halted"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Scheduler struct {
	// pending is a list of *Event, in order of time.
	pending *list.List

	// now is the current simulated time, the time of the last consumed event.
	now float64

	nextSeq uint64
	steps   uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: list.New(),
	}
}

// Now returns the current simulated time.  It never decreases.
func (s *Scheduler) Now() float64 {
	return s.now
}

// Pending returns the number of events not yet executed.
func (s *Scheduler) Pending() int {
	return s.pending.Len()
}

// Steps returns the number of events executed so far.
func (s *Scheduler) Steps() uint64 {
	return s.steps
}

// Schedule registers action to run once simulated time has advanced by delay.
func (s *Scheduler) Schedule(delay float64, name string, action Action) {
	if delay < 0 {
		panic("attempted to modify the past")
	}
	if math.IsNaN(delay) || math.IsInf(delay, 0) {
		panic(fmt.Sprintf("event %q scheduled with invalid delay %v", name, delay))
	}

	event := &Event{
		Time:   s.now + delay,
		Seq:    s.nextSeq,
		Name:   name,
		action: action,
	}
	s.nextSeq++

	// New events usually land at the back, so search from there and insert
	// behind every event with an equal or earlier time.
	for el := s.pending.Back(); el != nil; el = el.Prev() {
		if el.Value.(*Event).Time <= event.Time {
			s.pending.InsertAfter(event, el)
			return
		}
	}

	s.pending.PushFront(event)
}

// Step executes the earliest pending event.  A panic raised by the event's
// action is converted into an error.
func (s *Scheduler) Step() (event *Event, err error) {
	if s.pending.Len() == 0 {
		return nil, errors.Errorf("event queue is empty, nothing to do")
	}

	event = s.pending.Remove(s.pending.Front()).(*Event)
	s.now = event.Time
	s.steps++

	defer func() {
		if r := recover(); r != nil {
			if rErr, ok := r.(error); ok {
				err = errors.WithMessagef(rErr, "event %q at time %v panicked\n\n%s", event.Name, event.Time, debug.Stack())
			} else {
				err = errors.Errorf("event %q at time %v panicked: %v\n\n%s", event.Name, event.Time, r, debug.Stack())
			}
		}
	}()

	event.action()

	return event, nil
}

// Run executes events in time order, invoking observer after each of them,
// until the observer halts the run, an error occurs, or no events remain.
func (s *Scheduler) Run(observer Observer) (Outcome, error) {
	for s.pending.Len() > 0 {
		event, err := s.Step()
		if err != nil {
			return Halted, err
		}

		if observer == nil {
			continue
		}

		verdict, err := observer(event)
		if err != nil {
			return Halted, errors.WithMessagef(err, "observer failed after event %q at time %v", event.Name, event.Time)
		}

		if verdict == Halt {
			return Halted, nil
		}
	}

	return Exhausted, nil
}

// Status renders the pending events, latest first.
func (s *Scheduler) Status() string {
	count := s.pending.Len()
	if count == 0 {
		return "Empty event queue"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "now=%v steps=%d\n", s.now, s.steps)
	el := s.pending.Back()
	for i := 0; i < 50 && el != nil; i++ {
		event := el.Value.(*Event)
		fmt.Fprintf(&buf, "[event=%s seq=%d time=%v]\n", event.Name, event.Seq, event.Time)
		el = el.Prev()
	}

	if count > 50 {
		fmt.Fprintf(&buf, "\n ... skipping %d entries ... \n", count-50)
		return buf.String()
	}

	fmt.Fprintf(&buf, "\nCompleted event queue summary of %d events\n", count)
	return buf.String()
}

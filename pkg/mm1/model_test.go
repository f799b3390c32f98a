/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mm1_test

import (
	"math"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/des"
	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/mm1"
	"github.com/hyperledger-labs/queuesim/pkg/variate"
)

// delays scripts a source so that successive exponential draws at the paired
// rates produce exactly the given delays.
type delays struct {
	values []float64
}

func (d *delays) add(delay, rate float64) *delays {
	d.values = append(d.values, math.Exp(-delay*rate))
	return d
}

func (d *delays) Float64() float64 {
	Expect(d.values).NotTo(BeEmpty(), "scripted source exhausted")
	v := d.values[0]
	d.values = d.values[1:]
	return v
}

var _ = Describe("Model", func() {
	var (
		scheduler *des.Scheduler
		rates     mm1.Rates
	)

	BeforeEach(func() {
		scheduler = des.NewScheduler()
		rates = mm1.Rates{ArrivalRate: 1, ServiceRate: 2}
	})

	expectRejected := func(r mm1.Rates) {
		model, err := mm1.NewModel(r, scheduler, variate.NewGenerator(variate.NewSeededSource(1)), logging.NilLogger)
		Expect(model).To(BeNil())
		Expect(errors.Is(err, mm1.ErrInvalidConfig)).To(BeTrue())
		Expect(scheduler.Pending()).To(Equal(0))
	}

	It("rejects non-positive rates", func() {
		expectRejected(mm1.Rates{ArrivalRate: 0, ServiceRate: 2})
		expectRejected(mm1.Rates{ArrivalRate: 1, ServiceRate: -2})
		expectRejected(mm1.Rates{ArrivalRate: math.NaN(), ServiceRate: 2})
		expectRejected(mm1.Rates{ArrivalRate: 1, ServiceRate: math.Inf(1)})
	})

	It("rejects unstable rates", func() {
		expectRejected(mm1.Rates{ArrivalRate: 2, ServiceRate: 2})
		expectRejected(mm1.Rates{ArrivalRate: 3, ServiceRate: 2})
	})

	It("schedules only the first arrival on start", func() {
		model, err := mm1.NewModel(rates, scheduler, variate.NewGenerator(variate.NewSeededSource(1)), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(scheduler.Pending()).To(Equal(0))

		Expect(model.Start()).To(Succeed())
		Expect(scheduler.Pending()).To(Equal(1))
		Expect(model.Start()).To(MatchError("model already started"))
		Expect(scheduler.Pending()).To(Equal(1))
	})

	When("following a scripted sequence of delays", func() {
		var model *mm1.Model

		BeforeEach(func() {
			source := (&delays{}).
				add(1, rates.ArrivalRate).   // first arrival at 1
				add(2, rates.ServiceRate).   // customer 0 served 1 to 3
				add(0.5, rates.ArrivalRate). // arrival at 1.5
				add(0.5, rates.ArrivalRate). // arrival at 2
				add(10, rates.ArrivalRate).  // arrival at 12
				add(1, rates.ServiceRate).   // customer 1 served 3 to 4
				add(1, rates.ServiceRate)    // customer 2 served 4 to 5

			var err error
			model, err = mm1.NewModel(rates, scheduler, variate.NewGenerator(source), logging.NilLogger)
			Expect(err).NotTo(HaveOccurred())
			Expect(model.Start()).To(Succeed())
		})

		It("serves customers in arrival order with the expected timestamps", func() {
			sizes := []int{}
			for i := 0; i < 6; i++ {
				_, err := scheduler.Step()
				Expect(err).NotTo(HaveOccurred())
				sizes = append(sizes, model.Size())
			}
			Expect(sizes).To(Equal([]int{1, 2, 3, 2, 1, 0}))
			Expect(scheduler.Now()).To(BeNumerically("~", 5, 1e-9))
			Expect(model.Arrivals()).To(Equal(uint64(3)))
			Expect(model.Completions()).To(Equal(uint64(3)))
			Expect(model.PendingServed()).To(Equal(3))

			served := model.DrainServed()
			Expect(served).To(HaveLen(3))
			Expect(model.PendingServed()).To(Equal(0))
			Expect(model.DrainServed()).To(BeNil())

			expected := []struct {
				arrival, begin, end float64
				queue               int
			}{
				{1, 1, 3, 0},
				{1.5, 3, 4, 0},
				{2, 4, 5, 1},
			}
			for i, e := range expected {
				c := served[i]
				Expect(c.ID).To(Equal(uint64(i)))
				Expect(c.Stage).To(Equal(mm1.Served))
				Expect(c.ArrivalTime).To(BeNumerically("~", e.arrival, 1e-9))
				Expect(c.ServiceBegin).To(BeNumerically("~", e.begin, 1e-9))
				Expect(c.ServiceEnd).To(BeNumerically("~", e.end, 1e-9))
				Expect(c.QueueOnArrival).To(Equal(e.queue))
				Expect(c.Check()).To(Succeed())
			}
			Expect(served[2].Wait()).To(BeNumerically("~", 2, 1e-9))
			Expect(served[2].ServiceTime()).To(BeNumerically("~", 1, 1e-9))
			Expect(served[2].Sojourn()).To(BeNumerically("~", 3, 1e-9))

			// Only the arrival at 12 is left.
			Expect(scheduler.Pending()).To(Equal(1))
		})

		It("reports the customers present", func() {
			for i := 0; i < 3; i++ {
				_, err := scheduler.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(model.QueueLength()).To(Equal(2))

			inService, ok := model.InService()
			Expect(ok).To(BeTrue())
			Expect(inService.ID).To(Equal(uint64(0)))
			Expect(inService.Stage).To(Equal(mm1.InService))

			present := model.Present()
			Expect(present).To(HaveLen(3))
			Expect(present[1].Stage).To(Equal(mm1.Waiting))
			Expect(present[2].QueueOnArrival).To(Equal(1))
		})
	})

	It("keeps the queue discipline over a long run", func() {
		model, err := mm1.NewModel(rates, scheduler, variate.NewGenerator(variate.NewSeededSource(7)), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Start()).To(Succeed())

		_, ok := model.InService()
		Expect(ok).To(BeFalse())

		nextID := uint64(0)
		lastEnd := 0.0
		size := 0
		for i := 0; i < 20000; i++ {
			event, err := scheduler.Step()
			Expect(err).NotTo(HaveOccurred())

			switch event.Name {
			case "arrival":
				Expect(model.Size()).To(Equal(size + 1))
			case "departure":
				Expect(model.Size()).To(Equal(size - 1))
			default:
				Fail("unexpected event " + event.Name)
			}
			size = model.Size()
			Expect(model.QueueLength()).To(BeNumerically(">=", 0))

			for _, c := range model.DrainServed() {
				Expect(c.ID).To(Equal(nextID))
				Expect(c.Check()).To(Succeed())
				Expect(c.ServiceEnd).To(BeNumerically(">=", lastEnd))
				nextID++
				lastEnd = c.ServiceEnd
			}
		}
		Expect(model.Arrivals()).To(Equal(model.Completions() + uint64(model.Size())))
		Expect(model.Completions()).To(Equal(nextID))
	})
})

var _ = Describe("Customer", func() {
	It("rejects customers that were not served", func() {
		c := &mm1.Customer{ID: 3, Stage: mm1.InService}
		Expect(c.Check()).To(MatchError("customer 3 is in-service, not served"))
	})

	It("rejects out of order timestamps", func() {
		c := &mm1.Customer{ID: 1, ArrivalTime: 2, ServiceBegin: 1, ServiceEnd: 3, Stage: mm1.Served}
		Expect(c.Check()).To(HaveOccurred())

		c = &mm1.Customer{ID: 1, ArrivalTime: 1, ServiceBegin: 3, ServiceEnd: 2, Stage: mm1.Served}
		Expect(c.Check()).To(HaveOccurred())
	})

	It("names its stages", func() {
		Expect(mm1.Waiting.String()).To(Equal("waiting"))
		Expect(mm1.Served.String()).To(Equal("served"))
		Expect(mm1.Stage(9).String()).To(Equal("stage(9)"))
	})
})

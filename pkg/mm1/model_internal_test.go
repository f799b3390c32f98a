/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mm1

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/des"
	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/variate"
)

func recovered(fn func()) (result interface{}) {
	defer func() {
		result = recover()
	}()
	fn()
	return nil
}

var _ = Describe("Model invariants", func() {
	var (
		model     *Model
		scheduler *des.Scheduler
	)

	BeforeEach(func() {
		scheduler = des.NewScheduler()
		var err error
		model, err = NewModel(Rates{ArrivalRate: 1, ServiceRate: 2}, scheduler, variate.NewGenerator(variate.NewSeededSource(3)), logging.NilLogger)
		Expect(err).NotTo(HaveOccurred())
	})

	It("refuses to begin service on an empty system", func() {
		r := recovered(model.beginService)
		err, ok := r.(error)
		Expect(ok).To(BeTrue())
		Expect(errors.Is(err, ErrInvariantBreach)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("service started on an empty system"))
		Expect(scheduler.Pending()).To(Equal(0))
	})

	It("refuses to complete service on an empty system", func() {
		r := recovered(model.depart)
		err, ok := r.(error)
		Expect(ok).To(BeTrue())
		Expect(errors.Is(err, ErrInvariantBreach)).To(BeTrue())
	})

	It("refuses to serve a customer twice", func() {
		scheduler.Schedule(0, "arrival", model.arrive)
		_, err := scheduler.Step()
		Expect(err).NotTo(HaveOccurred())

		r := recovered(model.beginService)
		err, ok := r.(error)
		Expect(ok).To(BeTrue())
		Expect(errors.Is(err, ErrInvariantBreach)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("customer 0 which is in-service"))
	})

	It("surfaces breaches through the scheduler as errors", func() {
		scheduler.Schedule(1, "departure", model.depart)
		_, err := scheduler.Step()
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, ErrInvariantBreach)).To(BeTrue())
	})
})

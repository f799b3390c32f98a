/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package simulation_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/mm1"
	"github.com/hyperledger-labs/queuesim/pkg/simulation"
)

var _ = Describe("RunReplications", func() {
	var (
		ctx  context.Context
		spec simulation.Spec
	)

	BeforeEach(func() {
		ctx = context.Background()
		spec = simulation.Spec{
			ArrivalRate: 1,
			ServiceRate: 2,
			Samples:     2000,
			Seed:        10,
			Source:      simulation.SourceMath,
		}
	})

	It("summarizes independent replications", func() {
		summary, err := simulation.RunReplications(ctx, spec, 8, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Reports).To(HaveLen(8))
		Expect(summary.Theory.ExpectedMeanWait).To(Equal(0.5))
		Expect(summary.MeanWait.Mean).To(BeNumerically("~", 0.5, 0.1))
		Expect(summary.MeanQueue.Mean).To(BeNumerically("~", 0.5, 0.1))
		Expect(summary.MeanWait.StdDev).To(BeNumerically(">", 0))
		Expect(summary.MeanWait.HalfWidth).To(BeNumerically(">", 0))

		for _, report := range summary.Reports {
			Expect(report.Samples).To(Equal(uint64(2000)))
		}
		Expect(summary.Events).To(BeNumerically(">=", 8*2*2000))
	})

	It("matches independent runs with the derived seeds regardless of parallelism", func() {
		parallel, err := simulation.RunReplications(ctx, spec, 4, 4)
		Expect(err).NotTo(HaveOccurred())
		sequential, err := simulation.RunReplications(ctx, spec, 4, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(parallel).To(Equal(sequential))

		third := spec
		third.Seed = spec.Seed + 2
		result, err := simulation.Run(ctx, third)
		Expect(err).NotTo(HaveOccurred())
		Expect(parallel.Reports[2]).To(Equal(result.Report))
	})

	It("reports no interval for a single replication", func() {
		summary, err := simulation.RunReplications(ctx, spec, 1, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.MeanWait.HalfWidth).To(BeZero())
		Expect(summary.MeanWait.Mean).To(Equal(summary.Reports[0].MeanWait))
	})

	It("runs stream sourced replications", func() {
		spec.Source = simulation.SourceStream
		spec.Samples = 500
		summary, err := simulation.RunReplications(ctx, spec, 3, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Reports).To(HaveLen(3))
	})

	It("rejects invalid replication settings", func() {
		_, err := simulation.RunReplications(ctx, spec, 0, 1)
		Expect(errors.Is(err, mm1.ErrInvalidConfig)).To(BeTrue())

		_, err = simulation.RunReplications(ctx, spec, 2, 0)
		Expect(errors.Is(err, mm1.ErrInvalidConfig)).To(BeTrue())

		_, err = simulation.RunReplications(ctx, spec, 2, 1, simulation.SinkOpt(&collectingSink{}))
		Expect(errors.Is(err, mm1.ErrInvalidConfig)).To(BeTrue())

		spec.ArrivalRate = 5
		_, err = simulation.RunReplications(ctx, spec, 2, 1)
		Expect(errors.Is(err, mm1.ErrInvalidConfig)).To(BeTrue())
	})

	It("fails when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := simulation.RunReplications(cancelled, spec, 4, 2)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})

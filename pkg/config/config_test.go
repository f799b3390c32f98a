/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config_test

import (
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/queuesim/pkg/config"
	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/mm1"
	"github.com/hyperledger-labs/queuesim/pkg/simulation"
)

var _ = Describe("Config", func() {
	It("defaults to a valid half loaded queue", func() {
		c := config.Default()
		Expect(c.Validate()).To(Succeed())
		Expect(c.Spec()).To(Equal(simulation.Spec{
			ArrivalRate: 1,
			ServiceRate: 2,
			Samples:     10000,
			Seed:        1,
			Source:      simulation.SourceMath,
		}))
	})

	It("overlays parsed values on the defaults", func() {
		c, err := config.Parse([]byte(`
simulation:
  arrivalRate: 3
  serviceRate: 4
  source: stream
replications: 5
parallelism: 2
logLevel: debug
store: /tmp/reports
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Validate()).To(Succeed())
		Expect(c.Simulation.ArrivalRate).To(Equal(3.0))
		Expect(c.Simulation.ServiceRate).To(Equal(4.0))
		Expect(c.Simulation.Samples).To(Equal(uint64(10000)))
		Expect(c.Simulation.Source).To(Equal("stream"))
		Expect(c.Replications).To(Equal(5))
		Expect(c.Parallelism).To(Equal(2))
		Expect(c.Store).To(Equal("/tmp/reports"))

		level, err := c.Level()
		Expect(err).NotTo(HaveOccurred())
		Expect(level).To(Equal(logging.LevelDebug))
	})

	It("accepts an empty document", func() {
		c, err := config.Parse(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(config.Default()))
	})

	It("rejects unknown keys", func() {
		_, err := config.Parse([]byte("simulation:\n  arrivals: 3\n"))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("field arrivals not found"))
	})

	DescribeTable("rejects invalid settings",
		func(document string) {
			c, err := config.Parse([]byte(document))
			Expect(err).NotTo(HaveOccurred())
			Expect(errors.Is(c.Validate(), mm1.ErrInvalidConfig)).To(BeTrue())
		},
		Entry("unstable queue", "simulation: {arrivalRate: 2, serviceRate: 2}"),
		Entry("no samples", "simulation: {samples: 0}"),
		Entry("unknown source", "simulation: {source: dice}"),
		Entry("no replications", "replications: 0"),
		Entry("no parallelism", "parallelism: 0"),
		Entry("traced replications", "{replications: 2, trace: /tmp/trace}"),
		Entry("unknown log level", "logLevel: loud"),
	)

	When("loading files", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = ioutil.TempDir("", "queuesim-config")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(dir)
		})

		It("reads the file", func() {
			path := filepath.Join(dir, "queuesim.yaml")
			Expect(ioutil.WriteFile(path, []byte("simulation:\n  samples: 42\n"), 0644)).To(Succeed())

			c, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Simulation.Samples).To(Equal(uint64(42)))
		})

		It("reads the sample file", func() {
			c, err := config.Load(filepath.Join("testdata", "queuesim.yaml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Validate()).To(Succeed())
			Expect(c.Replications).To(Equal(8))
			Expect(c.Parallelism).To(Equal(4))
			Expect(c.Spec()).To(Equal(config.Default().Spec()))
		})

		It("reports missing files", func() {
			_, err := config.Load(filepath.Join(dir, "missing.yaml"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(HavePrefix("could not read config file"))
		})
	})
})

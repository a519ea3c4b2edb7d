package monitoring

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/basestation/harqcore/harq"
)

var _ = Describe("Monitor", func() {
	var m *Monitor

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should register entities and list their ids in registration order", func() {
		e1 := harq.MakeHarqEntityBuilder().Build()
		e2 := harq.MakeHarqEntityBuilder().Build()

		m.RegisterEntity(e1)
		m.RegisterEntity(e2)

		Expect(m.entities).To(HaveLen(2))
		Expect(m.order).To(Equal([]string{e1.ID(), e2.ID()}))
	})

	It("should fall back to a random port when an unsafe port is requested", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should keep a valid port number", func() {
		m.WithPortNumber(9090)

		Expect(m.portNumber).To(Equal(9090))
	})

	It("should track and remove progress bars", func() {
		bar := m.CreateProgressBar("ttis", 100)

		Expect(m.progressBars).To(HaveLen(1))

		bar.IncrementFinished(10)
		Expect(bar.Finished).To(Equal(uint64(10)))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})
})

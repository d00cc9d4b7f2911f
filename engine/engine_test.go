package engine

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keelengine/keel/core"
)

type tickerObject struct {
	ticks int
}

func (o *tickerObject) Update(_ *core.UpdateContext) core.UpdateStatus {
	o.ticks++
	return core.StatusSuspended
}

var _ = Describe("Engine", func() {
	var (
		clock *core.ManualClock
		e     *Engine
	)

	BeforeEach(func() {
		clock = core.NewManualClock(time.Unix(0, 0))
		e = MakeBuilder().
			WithoutMonitoring().
			WithClock(clock).
			Build()
	})

	AfterEach(func() {
		e.Terminate()

		os.Remove("keel_run_" + e.ID() + ".sqlite3")
	})

	It("should register types and spawn objects", func() {
		err := e.RegisterType(core.TypeDescriptor{
			ID: "ticker",
			Factory: func(_ any) (any, error) {
				return &tickerObject{}, nil
			},
			Capabilities: core.CapabilityMask(core.CapUpdatable),
		})
		Expect(err).To(BeNil())

		h, err := e.Spawn("ticker", nil)
		Expect(err).To(BeNil())
		Expect(e.Store().Alive(h)).To(BeTrue())
	})

	It("should drive objects frame by frame", func() {
		err := e.RegisterType(core.TypeDescriptor{
			ID: "ticker",
			Factory: func(_ any) (any, error) {
				return &tickerObject{}, nil
			},
			Capabilities: core.CapabilityMask(core.CapUpdatable),
		})
		Expect(err).To(BeNil())

		h, err := e.Spawn("ticker", nil)
		Expect(err).To(BeNil())

		for i := 0; i < 3; i++ {
			clock.Advance(16 * time.Millisecond)
			Expect(e.Step()).To(Succeed())
		}

		instance, err := e.Store().Get(h)
		Expect(err).To(BeNil())
		Expect(instance.(*tickerObject).ticks).To(Equal(3))
		Expect(e.Scheduler().FrameCount()).To(Equal(uint64(3)))
	})

	It("should record one row per frame", func() {
		clock.Advance(16 * time.Millisecond)
		Expect(e.Step()).To(Succeed())
		clock.Advance(16 * time.Millisecond)
		Expect(e.Step()).To(Succeed())

		e.Recorder().Flush()

		Expect(e.Recorder().ListTables()).To(ContainElement("frames"))
	})

	It("should refuse a monitor port without monitoring", func() {
		badBuild := func() {
			MakeBuilder().WithoutMonitoring().WithMonitorPort(8080).Build()
		}

		Expect(badBuild).To(Panic())
	})
})

package video

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pipeline", func() {
	var (
		backend *fakeBackend
		params  Params
		p       *Pipeline
		frame   []byte
	)

	BeforeEach(func() {
		backend = &fakeBackend{}
		params = Params{Path: "out.mp4", Width: 64, Height: 64, FPS: 30}
		frame = make([]byte, params.FrameSize())

		var err error
		p, err = NewPipeline(backend, params, WithLogger(quiet))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(p.Close()).To(Succeed())
	})

	It("starts constructed without touching the backend", func() {
		Expect(p.State()).To(Equal(Constructed))
		Expect(backend.calls).To(BeEmpty())
	})

	Context("lifecycle violations", func() {
		It("rejects Write before Open", func() {
			err := p.Write(frame)
			Expect(err).To(MatchError(ErrNotOpen))
			Expect(backend.calls).To(BeEmpty())
		})

		It("rejects Finish before Open", func() {
			Expect(p.Finish()).To(MatchError(ErrNotOpen))
		})

		It("rejects a second Open", func() {
			Expect(p.Open()).To(Succeed())
			Expect(p.Open()).To(MatchError(ErrState))
		})

		It("rejects Write after Finish", func() {
			Expect(p.Open()).To(Succeed())
			Expect(p.Write(frame)).To(Succeed())
			Expect(p.Finish()).To(Succeed())

			Expect(p.Write(frame)).To(MatchError(ErrFinished))
			Expect(p.Finish()).To(MatchError(ErrFinished))
		})

		It("rejects Write after Close", func() {
			Expect(p.Open()).To(Succeed())
			Expect(p.Close()).To(Succeed())
			Expect(p.Write(frame)).To(MatchError(ErrFinished))
		})

		It("rejects a frame of the wrong size and stays failed", func() {
			Expect(p.Open()).To(Succeed())
			err := p.Write(frame[:10])
			Expect(err).To(MatchError(ErrFrameSize))

			var se *StageError
			Expect(err).To(BeAssignableToTypeOf(se))
			Expect(p.State()).To(Equal(Failed))
			Expect(p.Write(frame)).To(MatchError(ErrFailed))
		})
	})

	Context("normal run", func() {
		BeforeEach(func() {
			backend.lag = 2
			Expect(p.Open()).To(Succeed())
		})

		It("prepares the conversion context exactly once, on the first Write", func() {
			Expect(p.State()).To(Equal(Opened))
			for i := 0; i < 5; i++ {
				Expect(p.Write(frame)).To(Succeed())
			}
			Expect(p.State()).To(Equal(Writing))
			Expect(backend.calls).To(Equal([]string{
				"open", "prepare", "encode", "encode", "encode", "encode", "encode",
			}))
		})

		It("stamps frames with a constant 90kHz step", func() {
			for i := 0; i < 5; i++ {
				Expect(p.Write(frame)).To(Succeed())
			}
			Expect(backend.pts).To(Equal([]int64{0, 3000, 6000, 9000, 12000}))
			Expect(p.Stats().LastPTS).To(Equal(int64(12000)))
		})

		It("accepts zero packets per write and collects the rest on Finish", func() {
			Expect(p.Write(frame)).To(Succeed())
			Expect(p.Write(frame)).To(Succeed())
			Expect(p.Stats().Packets).To(Equal(0))

			Expect(p.Write(frame)).To(Succeed())
			Expect(p.Stats().Packets).To(Equal(1))

			Expect(p.Finish()).To(Succeed())
			Expect(p.State()).To(Equal(Finished))
			Expect(p.Stats().Packets).To(Equal(3))
			Expect(p.Stats().Frames).To(Equal(int64(3)))
			Expect(backend.calls[len(backend.calls)-1]).To(Equal("flush"))
		})

		It("finishes an empty stream without preparing", func() {
			Expect(p.Finish()).To(Succeed())
			Expect(backend.calls).To(Equal([]string{"open", "flush"}))
		})
	})

	Context("backend failures", func() {
		It("surfaces open failures with their stage", func() {
			backend.openErr = ErrCodecOpen
			err := p.Open()
			Expect(err).To(MatchError(ErrCodecOpen))

			var se *StageError
			Expect(err).To(BeAssignableToTypeOf(se))
			se = err.(*StageError)
			Expect(se.Stage).To(Equal(StageOpen))
			Expect(p.State()).To(Equal(Failed))
		})

		It("does not retry a rejected frame", func() {
			Expect(p.Open()).To(Succeed())
			backend.encErr = ErrSendFrame
			Expect(p.Write(frame)).To(MatchError(ErrSendFrame))
			Expect(p.Write(frame)).To(MatchError(ErrFailed))
			Expect(backend.calls).To(Equal([]string{"open", "prepare", "encode"}))
		})

		It("reports the frame index of a failed write", func() {
			Expect(p.Open()).To(Succeed())
			Expect(p.Write(frame)).To(Succeed())
			Expect(p.Write(frame)).To(Succeed())
			backend.encErr = errBoom

			err := p.Write(frame)
			Expect(err).To(MatchError(errBoom))
			Expect(err.(*StageError).Frame).To(Equal(int64(2)))
			Expect(err.Error()).To(ContainSubstring("write frame 2"))
		})

		It("fails on prepare errors", func() {
			Expect(p.Open()).To(Succeed())
			backend.prepErr = ErrAlloc
			err := p.Write(frame)
			Expect(err).To(MatchError(ErrAlloc))
			Expect(err.(*StageError).Stage).To(Equal(StagePrepare))
		})

		It("surfaces trailer failures from Finish", func() {
			Expect(p.Open()).To(Succeed())
			Expect(p.Write(frame)).To(Succeed())
			backend.flushErr = ErrTrailer
			Expect(p.Finish()).To(MatchError(ErrTrailer))
			Expect(p.State()).To(Equal(Failed))
		})
	})

	Context("resource release", func() {
		It("closes the backend once, whatever the state", func() {
			Expect(p.Open()).To(Succeed())
			backend.encErr = errBoom
			Expect(p.Write(frame)).NotTo(Succeed())

			Expect(p.Close()).To(Succeed())
			Expect(p.Close()).To(Succeed())
			Expect(backend.closed).To(Equal(1))
		})
	})
})

var _ = Describe("NewPipeline", func() {
	It("rejects invalid params and releases the backend", func() {
		b := &fakeBackend{}
		_, err := NewPipeline(b, Params{Path: "out.mp4", Width: 63, Height: 64, FPS: 30}, WithLogger(quiet))
		Expect(err).To(MatchError(ErrInvalidParams))
		Expect(b.closed).To(Equal(1))
	})
})

package hwaccel

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/csnewman/ffmpeg-go"

	"github.com/linuxmatters/rawpipe/internal/encoder"
	"github.com/linuxmatters/rawpipe/internal/frame"
)

// Session is an open encoder together with the hardware frames pool that
// feeds it
type Session struct {
	settings  encoder.Settings
	codecCtx  *ffmpeg.AVCodecContext
	framesRef *ffmpeg.AVBufferRef
	nextPts   int64
}

// setupFramesContext allocates and initialises the frames pool and
// attaches a reference to the codec context
func (s *Session) setupFramesContext(deviceRef *ffmpeg.AVBufferRef, hwFormat ffmpeg.AVPixelFormat) error {
	s.framesRef = ffmpeg.AVHWFrameCtxAlloc(deviceRef)
	if s.framesRef == nil {
		return errors.New("failed to create hardware frame context")
	}

	framesCtx := framesContext(s.framesRef)
	if framesCtx == nil {
		return errors.New("failed to access hardware frame context")
	}
	framesCtx.SetFormat(hwFormat)
	framesCtx.SetSwFormat(ffmpeg.AVPixFmtNv12)
	framesCtx.SetWidth(s.settings.Width)
	framesCtx.SetHeight(s.settings.Height)
	framesCtx.SetInitialPoolSize(s.settings.PoolSize)

	if _, err := ffmpeg.AVHWFrameCtxInit(s.framesRef); err != nil {
		return fmt.Errorf("failed to initialize hardware frame context: %w", err)
	}

	s.codecCtx.SetHwFramesCtx(ffmpeg.AVBufferRef_(s.framesRef))
	if s.codecCtx.HwFramesCtx() == nil {
		return errors.New("failed to reference hardware frame context")
	}
	return nil
}

// framesContext returns the AVHWFramesContext a frames reference's data
// field points at
func framesContext(ref *ffmpeg.AVBufferRef) *ffmpeg.AVHWFramesContext {
	data := ref.Data()
	return ffmpeg.ToAVHWFramesContextArray(unsafe.Pointer(&data)).Get(0)
}

// hwFrame is a pool frame owned by the caller until Release
type hwFrame struct {
	f *ffmpeg.AVFrame
}

func (h *hwFrame) Release() {
	if h.f != nil {
		ffmpeg.AVFrameFree(&h.f)
		h.f = nil
	}
}

type packet struct {
	pkt *ffmpeg.AVPacket
}

func (p *packet) Bytes() []byte {
	size := p.pkt.Size()
	if size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p.pkt.Data())), size)
}

func (p *packet) Release() {
	if p.pkt != nil {
		ffmpeg.AVPacketFree(&p.pkt)
		p.pkt = nil
	}
}

// Upload copies an NV12 frame into a pool frame. The software staging
// frame is freed before returning.
func (s *Session) Upload(src *frame.Buffer) (encoder.Frame, error) {
	if !src.Matches(frame.FormatNV12, s.settings.Width, s.settings.Height) {
		return nil, fmt.Errorf("upload: expected %s %dx%d frame", frame.FormatNV12, s.settings.Width, s.settings.Height)
	}

	sw := ffmpeg.AVFrameAlloc()
	if sw == nil {
		return nil, errors.New("failed to allocate software frame")
	}
	defer ffmpeg.AVFrameFree(&sw)
	sw.SetWidth(src.Width)
	sw.SetHeight(src.Height)
	sw.SetFormat(int(ffmpeg.AVPixFmtNv12))
	if _, err := ffmpeg.AVFrameGetBuffer(sw, 0); err != nil {
		return nil, fmt.Errorf("failed to allocate software frame data: %w", err)
	}
	for p := 0; p < src.PlaneCount(); p++ {
		base := unsafe.Pointer(sw.Data().Get(uintptr(p)))
		stride := int(sw.Linesize().Get(uintptr(p)))
		rowBytes, rows := src.Format.PlaneGeometry(p, src.Width, src.Height)
		for y := 0; y < rows; y++ {
			dst := unsafe.Slice((*byte)(unsafe.Add(base, y*stride)), rowBytes)
			copy(dst, src.Row(p, y))
		}
	}

	hw := &hwFrame{f: ffmpeg.AVFrameAlloc()}
	if hw.f == nil {
		return nil, errors.New("failed to allocate hardware frame")
	}
	if _, err := ffmpeg.AVHWFrameGetBuffer(s.framesRef, hw.f, 0); err != nil {
		hw.Release()
		return nil, fmt.Errorf("%w: %w", encoder.ErrPoolExhausted, err)
	}
	if _, err := ffmpeg.AVHWFrameTransferData(hw.f, sw, 0); err != nil {
		hw.Release()
		return nil, fmt.Errorf("error while transferring frame data to surface: %w", err)
	}

	hw.f.SetPts(s.nextPts)
	s.nextPts++
	return hw, nil
}

// SendFrame submits a hardware frame, or starts the flush when f is nil
func (s *Session) SendFrame(f encoder.Frame) error {
	var av *ffmpeg.AVFrame
	if f != nil {
		hw, ok := f.(*hwFrame)
		if !ok || hw.f == nil {
			return errors.New("send frame: not a frame from this session")
		}
		av = hw.f
	}

	_, err := ffmpeg.AVCodecSendFrame(s.codecCtx, av)
	return mapError(err)
}

// ReceivePacket returns the next encoded packet
func (s *Session) ReceivePacket() (encoder.Packet, error) {
	pkt := ffmpeg.AVPacketAlloc()
	if pkt == nil {
		return nil, errors.New("failed to allocate packet")
	}
	if _, err := ffmpeg.AVCodecReceivePacket(s.codecCtx, pkt); err != nil {
		ffmpeg.AVPacketFree(&pkt)
		return nil, mapError(err)
	}
	return &packet{pkt: pkt}, nil
}

// mapError translates FFmpeg's EAGAIN and EOF into the encoder sentinels
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ffmpeg.EAgain):
		return encoder.ErrAgain
	case errors.Is(err, ffmpeg.AVErrorEOF):
		return encoder.ErrEOF
	default:
		return err
	}
}

// Close frees the codec context, then the frames pool
func (s *Session) Close() error {
	if s.codecCtx != nil {
		ffmpeg.AVCodecFreeContext(&s.codecCtx)
		s.codecCtx = nil
	}
	if s.framesRef != nil {
		ffmpeg.AVBufferUnref(&s.framesRef)
		s.framesRef = nil
	}
	return nil
}

var _ encoder.Session = (*Session)(nil)

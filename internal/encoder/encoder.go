// Package encoder defines the contracts between the pipeline and a
// hardware encoder, and the state machine that feeds and drains it.
package encoder

import (
	"errors"
	"fmt"

	"github.com/linuxmatters/rawpipe/internal/frame"
)

var (
	// ErrAgain means the encoder has no packet ready and wants more input
	ErrAgain = errors.New("resource temporarily unavailable")
	// ErrEOF means the encoder has emitted every packet it will ever emit
	ErrEOF = errors.New("end of file")
	// ErrPoolExhausted means no accelerator frame could be taken from the pool
	ErrPoolExhausted = errors.New("hardware frame pool exhausted")
	// ErrFlushed is returned for any submission or flush after Flush
	ErrFlushed = errors.New("encoder already flushed")
	// ErrDrainStalled means the encoder asked for input after end of stream
	ErrDrainStalled = errors.New("encoder stalled while draining")
)

// Settings describes the encoder session to open
type Settings struct {
	EncoderName string // FFmpeg encoder name, e.g. "h264_qsv"
	Width       int
	Height      int
	Framerate   int
	PoolSize    int // Accelerator frames preallocated for the session
}

// Validate checks the settings before any device resources are touched
func (s Settings) Validate() error {
	if s.EncoderName == "" {
		return errors.New("encoder name cannot be empty")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", s.Width, s.Height)
	}
	if s.Framerate <= 0 {
		return fmt.Errorf("invalid framerate: %d", s.Framerate)
	}
	if s.PoolSize < 1 {
		return fmt.Errorf("invalid frame pool size: %d", s.PoolSize)
	}
	return nil
}

// Frame is a frame resident in accelerator memory. Release returns it to
// the pool.
type Frame interface {
	Release()
}

// Packet is one unit of encoded bitstream. Bytes is only valid until
// Release.
type Packet interface {
	Bytes() []byte
	Release()
}

// Codec is the send/receive half of an encoder session. SendFrame(nil)
// signals end of stream.
type Codec interface {
	SendFrame(f Frame) error
	ReceivePacket() (Packet, error)
}

// Uploader copies a software NV12 frame into a pool frame. Pool
// allocation and transfer must both succeed.
type Uploader interface {
	Upload(src *frame.Buffer) (Frame, error)
}

// Session is an open encoder bound to a frame pool on one device
type Session interface {
	Codec
	Uploader
	Close() error
}

// Device is an opened hardware accelerator
type Device interface {
	OpenSession(settings Settings) (Session, error)
	Close() error
}

// PacketSink receives encoded packets in emission order
type PacketSink interface {
	WritePacket(data []byte) error
}

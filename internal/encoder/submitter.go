package encoder

import (
	"errors"
	"fmt"

	"github.com/kataras/golog"
)

var logger = golog.Child("[encoder]")

// State is the submission phase of an encoder session
type State int

const (
	Feeding State = iota
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Feeding:
		return "feeding"
	case Draining:
		return "draining"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats counts what went through a Submitter
type Stats struct {
	Frames  int
	Packets int
	Bytes   int64
}

// Submitter drives a Codec through feed, drain and done. Every packet the
// codec emits is written to the sink and released before the next one is
// pulled.
type Submitter struct {
	codec Codec
	sink  PacketSink
	state State
	stats Stats
}

// NewSubmitter starts in the Feeding state
func NewSubmitter(codec Codec, sink PacketSink) *Submitter {
	return &Submitter{codec: codec, sink: sink}
}

// State returns the current phase
func (s *Submitter) State() State {
	return s.state
}

// Stats returns the running totals
func (s *Submitter) Stats() Stats {
	return s.stats
}

// Submit sends one frame and writes whatever packets become available.
// The caller keeps ownership of f and releases it afterwards.
func (s *Submitter) Submit(f Frame) error {
	if s.state != Feeding {
		return ErrFlushed
	}
	if f == nil {
		return errors.New("submit: nil frame, use Flush to end the stream")
	}

	if err := s.codec.SendFrame(f); err != nil {
		return fmt.Errorf("failed to send frame to encoder: %w", err)
	}
	s.stats.Frames++

	err := s.drain()
	switch {
	case errors.Is(err, ErrAgain):
		return nil
	case errors.Is(err, ErrEOF):
		s.state = Done
		return fmt.Errorf("encoder ended the stream while feeding: %w", err)
	default:
		return err
	}
}

// Flush signals end of stream and drains every remaining packet. It may
// be called once; later calls return ErrFlushed.
func (s *Submitter) Flush() error {
	if s.state != Feeding {
		return ErrFlushed
	}
	s.state = Draining
	defer func() { s.state = Done }()

	if err := s.codec.SendFrame(nil); err != nil && !errors.Is(err, ErrEOF) {
		return fmt.Errorf("failed to flush encoder: %w", err)
	}

	err := s.drain()
	switch {
	case errors.Is(err, ErrEOF):
		logger.Debugf("encoder drained: %d frames, %d packets, %d bytes",
			s.stats.Frames, s.stats.Packets, s.stats.Bytes)
		return nil
	case errors.Is(err, ErrAgain):
		return ErrDrainStalled
	default:
		return err
	}
}

// drain pulls packets until the codec returns an error. ErrAgain and
// ErrEOF are returned unwrapped.
func (s *Submitter) drain() error {
	for {
		pkt, err := s.codec.ReceivePacket()
		if err != nil {
			if errors.Is(err, ErrAgain) || errors.Is(err, ErrEOF) {
				return err
			}
			return fmt.Errorf("failed to receive packet: %w", err)
		}

		data := pkt.Bytes()
		werr := s.sink.WritePacket(data)
		pkt.Release()
		if werr != nil {
			return fmt.Errorf("failed to write packet: %w", werr)
		}

		s.stats.Packets++
		s.stats.Bytes += int64(len(data))
	}
}

package pipeline

import (
	"errors"

	"github.com/linuxmatters/rawpipe/internal/convert"
	"github.com/linuxmatters/rawpipe/internal/encoder"
	"github.com/linuxmatters/rawpipe/internal/frame"
)

// recorder logs acquisitions and releases in order
type recorder struct {
	events []string
}

func (r *recorder) add(e string) { r.events = append(r.events, e) }

type fakeDevice struct {
	rec        *recorder
	sessionErr error
	session    *fakeSession
}

func (d *fakeDevice) OpenSession(s encoder.Settings) (encoder.Session, error) {
	if d.sessionErr != nil {
		return nil, d.sessionErr
	}
	d.rec.add("open session")
	d.session = &fakeSession{rec: d.rec, settings: s, lookahead: 3}
	return d.session, nil
}

func (d *fakeDevice) Close() error {
	d.rec.add("close device")
	return nil
}

// poolFrame is referenced by the pipeline and, while queued, by the codec.
// Its surface returns to the pool when both references are gone.
type poolFrame struct {
	s    *fakeSession
	refs int
	id   int
}

func (f *poolFrame) Release() {
	f.refs--
	if f.refs == 0 {
		f.s.outstanding--
	}
}

type fakePacket struct{ data []byte }

func (p *fakePacket) Bytes() []byte { return p.data }
func (p *fakePacket) Release()      {}

// fakeSession models an encoder with lookahead that holds pool frames
// until it emits their packets
type fakeSession struct {
	rec         *recorder
	settings    encoder.Settings
	lookahead   int
	outstanding int
	peak        int
	uploads     int
	queue       []*poolFrame
	flushes     int
}

func (s *fakeSession) Upload(src *frame.Buffer) (encoder.Frame, error) {
	if !src.Matches(frame.FormatNV12, s.settings.Width, s.settings.Height) {
		return nil, errors.New("bad upload frame")
	}
	if s.outstanding >= s.settings.PoolSize {
		return nil, encoder.ErrPoolExhausted
	}
	s.outstanding++
	s.peak = max(s.peak, s.outstanding)
	s.uploads++
	return &poolFrame{s: s, refs: 1, id: s.uploads}, nil
}

func (s *fakeSession) SendFrame(f encoder.Frame) error {
	if f == nil {
		s.flushes++
		return nil
	}
	pf := f.(*poolFrame)
	pf.refs++
	s.queue = append(s.queue, pf)
	return nil
}

func (s *fakeSession) ReceivePacket() (encoder.Packet, error) {
	if s.flushes == 0 && len(s.queue) <= s.lookahead {
		return nil, encoder.ErrAgain
	}
	if len(s.queue) == 0 {
		return nil, encoder.ErrEOF
	}
	pf := s.queue[0]
	s.queue = s.queue[1:]
	pf.Release()
	return &fakePacket{data: []byte{0, 0, 0, 1, byte(pf.id)}}, nil
}

func (s *fakeSession) Close() error {
	s.rec.add("close session")
	return nil
}

type fakeConverter struct {
	rec  *recorder
	spec convert.Spec
}

func (c *fakeConverter) Convert(src, dst *frame.Buffer) error { return nil }
func (c *fakeConverter) Spec() convert.Spec                   { return c.spec }
func (c *fakeConverter) Close() error {
	c.rec.add("close converter")
	return nil
}

package hwaccel

import (
	"errors"
	"fmt"

	"github.com/csnewman/ffmpeg-go"

	"github.com/linuxmatters/rawpipe/internal/encoder"
)

// Device is an open hardware device context. Only the requested type is
// opened; there is no probing or fallback.
type Device struct {
	accel Type
	ref   *ffmpeg.AVBufferRef
}

// Open creates a device context for t on its default device node
func Open(t Type) (*Device, error) {
	spec, ok := accelTable[t]
	if !ok {
		return nil, fmt.Errorf("unknown accelerator %q", t)
	}

	var ref *ffmpeg.AVBufferRef
	if _, err := ffmpeg.AVHWDeviceCtxCreate(&ref, spec.deviceType, nil, nil, 0); err != nil {
		return nil, fmt.Errorf("failed to create %s device: %w", spec.desc, err)
	}
	if ref == nil {
		return nil, fmt.Errorf("failed to create %s device", spec.desc)
	}

	logger.Infof("opened %s device", spec.desc)
	return &Device{accel: t, ref: ref}, nil
}

// Type returns the accelerator this device was opened for
func (d *Device) Type() Type {
	return d.accel
}

// OpenSession configures an encoder with a hardware frames pool on d.
// On failure everything created so far is released.
func (d *Device) OpenSession(settings encoder.Settings) (encoder.Session, error) {
	s, err := d.openSession(settings)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Device) openSession(settings encoder.Settings) (*Session, error) {
	if d.ref == nil {
		return nil, errors.New("device is closed")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	spec := accelTable[d.accel]

	encName := ffmpeg.ToCStr(settings.EncoderName)
	defer encName.Free()
	codec := ffmpeg.AVCodecFindEncoderByName(encName)
	if codec == nil {
		return nil, fmt.Errorf("encoder %s not found", settings.EncoderName)
	}

	s := &Session{settings: settings}

	s.codecCtx = ffmpeg.AVCodecAllocContext3(codec)
	if s.codecCtx == nil {
		return nil, errors.New("failed to allocate codec context")
	}
	s.codecCtx.SetWidth(settings.Width)
	s.codecCtx.SetHeight(settings.Height)
	s.codecCtx.SetTimeBase(ffmpeg.AVMakeQ(1, settings.Framerate))
	s.codecCtx.SetFramerate(ffmpeg.AVMakeQ(settings.Framerate, 1))
	s.codecCtx.SetSampleAspectRatio(ffmpeg.AVMakeQ(1, 1))
	s.codecCtx.SetPixFmt(spec.hwFormat)

	if err := s.setupFramesContext(d.ref, spec.hwFormat); err != nil {
		s.Close()
		return nil, err
	}

	if _, err := ffmpeg.AVCodecOpen2(s.codecCtx, codec, nil); err != nil {
		s.Close()
		return nil, fmt.Errorf("cannot open video encoder codec: %w", err)
	}

	logger.Infof("encoder %s open: %dx%d @ %d fps, pool of %d frames",
		settings.EncoderName, settings.Width, settings.Height, settings.Framerate, settings.PoolSize)
	return s, nil
}

// Close releases the device context. It is safe to call more than once.
func (d *Device) Close() error {
	if d.ref != nil {
		ffmpeg.AVBufferUnref(&d.ref)
		d.ref = nil
	}
	return nil
}

var _ encoder.Device = (*Device)(nil)

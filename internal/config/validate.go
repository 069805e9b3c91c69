package config

import (
	"fmt"

	"github.com/linuxmatters/rawpipe/internal/vsize"
)

var (
	knownFilters = map[string]bool{"bilinear": true, "bicubic": true, "point": true}
	knownScalers = map[string]bool{"go": true, "sws": true}
)

// Validate checks the encode configuration. A zero frame budget is allowed:
// the encoder is still opened and flushed, producing an empty bitstream.
func (c Encode) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if c.Output == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if err := validateSize("size", c.Size, true); err != nil {
		return err
	}
	if c.Frames < 0 {
		return fmt.Errorf("invalid frame count: %d", c.Frames)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid framerate: %d", c.FPS)
	}
	if c.Encoder == "" {
		return fmt.Errorf("encoder name cannot be empty")
	}
	if c.Accel == "" {
		return fmt.Errorf("accelerator type cannot be empty")
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("frame pool size must be at least 1, got %d", c.PoolSize)
	}
	if !knownFilters[c.Filter] {
		return fmt.Errorf("unknown filter %q (use bilinear, bicubic or point)", c.Filter)
	}
	if !knownScalers[c.Scaler] {
		return fmt.Errorf("unknown scaler %q (use go or sws)", c.Scaler)
	}
	return nil
}

// Validate checks the scale configuration. Unlike encode, an empty run has
// nothing to produce, so the frame budget must be positive.
func (c Scale) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if c.Output == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if err := validateSize("source size", c.SrcSize, false); err != nil {
		return err
	}
	if err := validateSize("output size", c.DstSize, false); err != nil {
		return err
	}
	if c.Frames < 1 {
		return fmt.Errorf("invalid frame count: %d (at least one frame is needed to scale)", c.Frames)
	}
	if !knownFilters[c.Filter] {
		return fmt.Errorf("unknown filter %q (use bilinear, bicubic or point)", c.Filter)
	}
	if !knownScalers[c.Scaler] {
		return fmt.Errorf("unknown scaler %q (use go or sws)", c.Scaler)
	}
	return nil
}

// Hardware frame pools want even dimensions; the software path rounds chroma up
func validateSize(what string, s vsize.Size, even bool) error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid %s: %s", what, s)
	}
	if even && (s.Width%2 != 0 || s.Height%2 != 0) {
		return fmt.Errorf("invalid %s: %s (width and height must be even)", what, s)
	}
	return nil
}

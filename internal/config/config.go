package config

import (
	"github.com/linuxmatters/rawpipe/internal/vsize"
)

// Hardware encode defaults (Pipeline A). Running hwencode without arguments
// uses exactly these values.
const (
	EncodeWidth    = 1280
	EncodeHeight   = 720
	EncodeFrames   = 1000
	EncodeFPS      = 25
	EncoderName    = "h264_qsv"
	AccelType      = "qsv"
	FramePoolSize  = 20 // Initial size of the accelerator frame pool
	EncodeInput    = "out.bgra"
	EncodeOutput   = "test.h264"
	EncodeFilter   = "bicubic"
	DefaultScaler  = "go"
	SourceAlign    = 1  // Source BGRA buffer is tightly packed
	ConvertedAlign = 16 // Destination planes written to rawvideo, aligned rows
)

// Software scale defaults (Pipeline B)
const (
	ScaleSrcWidth  = 320
	ScaleSrcHeight = 180
	ScaleFrames    = 100
	ScaleInput     = "test_bgra.bgra"
	ScaleFilter    = "bilinear"
)

// Encode is the immutable run configuration for the hardware encode pipeline
type Encode struct {
	Input    string     `yaml:"input"`     // Raw BGRA frames
	Output   string     `yaml:"output"`    // Elementary bitstream
	Size     vsize.Size `yaml:"size"`      // Source and encoded resolution
	Frames   int        `yaml:"frames"`    // Frame budget
	FPS      int        `yaml:"fps"`       // Time base is 1/FPS
	Encoder  string     `yaml:"encoder"`   // FFmpeg encoder name
	Accel    string     `yaml:"accel"`     // Hardware device type
	PoolSize int        `yaml:"pool_size"` // Accelerator frame pool bound
	Filter   string     `yaml:"filter"`    // Resampling filter for the NV12 converter
	Scaler   string     `yaml:"scaler"`    // "go" or "sws"
}

// Scale is the immutable run configuration for the software scale pipeline
type Scale struct {
	Input       string     `yaml:"input"`
	Output      string     `yaml:"output"`
	SrcSize     vsize.Size `yaml:"src_size"`
	DstSize     vsize.Size `yaml:"dst_size"`
	Frames      int        `yaml:"frames"`
	Filter      string     `yaml:"filter"`
	Scaler      string     `yaml:"scaler"`
	KeepPadding bool       `yaml:"keep_padding"` // Write full stride rows instead of visible bytes
}

// DefaultEncode returns the built-in hardware encode configuration
func DefaultEncode() Encode {
	return Encode{
		Input:    EncodeInput,
		Output:   EncodeOutput,
		Size:     vsize.Size{Width: EncodeWidth, Height: EncodeHeight},
		Frames:   EncodeFrames,
		FPS:      EncodeFPS,
		Encoder:  EncoderName,
		Accel:    AccelType,
		PoolSize: FramePoolSize,
		Filter:   EncodeFilter,
		Scaler:   DefaultScaler,
	}
}

// DefaultScale returns the built-in scale configuration. Output and DstSize
// have no defaults; they come from the command line.
func DefaultScale() Scale {
	return Scale{
		Input:   ScaleInput,
		SrcSize: vsize.Size{Width: ScaleSrcWidth, Height: ScaleSrcHeight},
		Frames:  ScaleFrames,
		Filter:  ScaleFilter,
		Scaler:  DefaultScaler,
	}
}

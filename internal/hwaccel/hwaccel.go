// Package hwaccel opens an FFmpeg hardware device and runs an H.264
// encoder session on it, with frames uploaded from a fixed-size pool.
package hwaccel

import (
	"fmt"
	"os"
	"sort"

	"github.com/csnewman/ffmpeg-go"
	"github.com/kataras/golog"
)

var logger = golog.Child("[hwaccel]")

// Type represents a hardware acceleration type
type Type string

const (
	QSV          Type = "qsv"          // Intel Quick Sync Video
	VAAPI        Type = "vaapi"        // VA-API (AMD, Intel, older hardware)
	NVENC        Type = "nvenc"        // NVIDIA NVENC via CUDA
	Vulkan       Type = "vulkan"       // Vulkan Video
	VideoToolbox Type = "videotoolbox" // Apple VideoToolbox (macOS)
)

// accelSpec maps an acceleration type to its FFmpeg identifiers
type accelSpec struct {
	encoder    string
	deviceType ffmpeg.AVHWDeviceType
	hwFormat   ffmpeg.AVPixelFormat
	desc       string
}

var accelTable = map[Type]accelSpec{
	QSV:          {"h264_qsv", ffmpeg.AVHWDeviceTypeQsv, ffmpeg.AVPixFmtQsv, "Intel Quick Sync Video"},
	VAAPI:        {"h264_vaapi", ffmpeg.AVHWDeviceTypeVaapi, ffmpeg.AVPixFmtVaapi, "VA-API"},
	NVENC:        {"h264_nvenc", ffmpeg.AVHWDeviceTypeCuda, ffmpeg.AVPixFmtCuda, "NVIDIA NVENC"},
	Vulkan:       {"h264_vulkan", ffmpeg.AVHWDeviceTypeVulkan, ffmpeg.AVPixFmtVulkan, "Vulkan Video"},
	VideoToolbox: {"h264_videotoolbox", ffmpeg.AVHWDeviceTypeVideotoolbox, ffmpeg.AVPixFmtVideotoolbox, "Apple VideoToolbox"},
}

// ParseType validates an accelerator name
func ParseType(name string) (Type, error) {
	t := Type(name)
	if _, ok := accelTable[t]; !ok {
		return "", fmt.Errorf("unknown accelerator %q (supported: %v)", name, Types())
	}
	return t, nil
}

// Types lists the supported accelerators in name order
func Types() []Type {
	types := make([]Type, 0, len(accelTable))
	for t := range accelTable {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// DefaultEncoder returns the H.264 encoder usually paired with t
func (t Type) DefaultEncoder() string {
	return accelTable[t].encoder
}

// Description returns a human-readable name
func (t Type) Description() string {
	if spec, ok := accelTable[t]; ok {
		return spec.desc
	}
	return string(t)
}

// SuppressLogging silences FFmpeg and libva logging. It returns a function
// that restores the previous state.
func SuppressLogging() func() {
	oldLevel, _ := ffmpeg.AVLogGetLevel()
	ffmpeg.AVLogSetLevel(ffmpeg.AVLogQuiet)

	// libva has its own logging, separate from FFmpeg
	oldLibvaLevel, hadLibva := os.LookupEnv("LIBVA_MESSAGING_LEVEL")
	os.Setenv("LIBVA_MESSAGING_LEVEL", "0")

	return func() {
		ffmpeg.AVLogSetLevel(oldLevel)
		if !hadLibva {
			os.Unsetenv("LIBVA_MESSAGING_LEVEL")
		} else {
			os.Setenv("LIBVA_MESSAGING_LEVEL", oldLibvaLevel)
		}
	}
}

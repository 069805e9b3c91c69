// Package vsize parses frame sizes written as WxH or as one of FFmpeg's
// named abbreviations.
package vsize

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a frame resolution in pixels
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Pixels returns Width * Height
func (s Size) Pixels() int {
	return s.Width * s.Height
}

// abbreviations mirrors the named sizes accepted by av_parse_video_size
var abbreviations = map[string]Size{
	"ntsc":      {720, 480},
	"pal":       {720, 576},
	"qntsc":     {352, 240}, // VCD compliant NTSC
	"qpal":      {352, 288}, // VCD compliant PAL
	"sntsc":     {640, 480}, // square pixel NTSC
	"spal":      {768, 576}, // square pixel PAL
	"film":      {352, 240},
	"ntsc-film": {352, 240},
	"sqcif":     {128, 96},
	"qcif":      {176, 144},
	"cif":       {352, 288},
	"4cif":      {704, 576},
	"16cif":     {1408, 1152},
	"qqvga":     {160, 120},
	"qvga":      {320, 240},
	"vga":       {640, 480},
	"svga":      {800, 600},
	"xga":       {1024, 768},
	"uxga":      {1600, 1200},
	"qxga":      {2048, 1536},
	"sxga":      {1280, 1024},
	"qsxga":     {2560, 2048},
	"hsxga":     {5120, 4096},
	"wvga":      {852, 480},
	"wxga":      {1366, 768},
	"wsxga":     {1600, 1024},
	"wuxga":     {1920, 1200},
	"woxga":     {2560, 1600},
	"wqsxga":    {3200, 2048},
	"wquxga":    {3840, 2400},
	"whsxga":    {6400, 4096},
	"whuxga":    {7680, 4800},
	"cga":       {320, 200},
	"ega":       {640, 350},
	"hd480":     {852, 480},
	"hd720":     {1280, 720},
	"hd1080":    {1920, 1080},
	"2k":        {2048, 1080}, // Digital Cinema System Specification
	"2kdci":     {2048, 1080},
	"2kflat":    {1998, 1080},
	"2kscope":   {2048, 858},
	"4k":        {4096, 2160}, // Digital Cinema System Specification
	"4kdci":     {4096, 2160},
	"4kflat":    {3996, 2160},
	"4kscope":   {4096, 1716},
	"nhd":       {640, 360},
	"hqvga":     {240, 160},
	"wqvga":     {400, 240},
	"fwqvga":    {432, 240},
	"hvga":      {480, 320},
	"qhd":       {960, 540},
	"uhd2160":   {3840, 2160},
	"uhd4320":   {7680, 4320},
}

// Parse accepts either WxH or a named size abbreviation such as "hd720"
func Parse(s string) (Size, error) {
	if size, ok := abbreviations[s]; ok {
		return size, nil
	}

	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid size %q: must be in the form WxH or a valid size abbreviation", s)
	}

	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return Size{}, fmt.Errorf("invalid size %q: bad width", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return Size{}, fmt.Errorf("invalid size %q: bad height", s)
	}

	return Size{Width: width, Height: height}, nil
}

// MarshalText renders the size as WxH so it round-trips through YAML
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses WxH or an abbreviation
func (s *Size) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

package convert

import "image/color"

// BT.601 limited range, 8-bit fixed point
const (
	yR, yG, yB = 66, 129, 25
	uR, uG, uB = -38, -74, 112
	vR, vG, vB = 112, -94, -18
)

func bt601Y(r, g, b int32) uint8 {
	return uint8(((yR*r + yG*g + yB*b + 128) >> 8) + 16)
}

func bt601UV(r, g, b int32) (uint8, uint8) {
	u := ((uR*r + uG*g + uB*b + 128) >> 8) + 128
	v := ((vR*r + vG*g + vB*b + 128) >> 8) + 128
	return uint8(u), uint8(v)
}

func jfifY(r, g, b int32) uint8 {
	y, _, _ := color.RGBToYCbCr(uint8(r), uint8(g), uint8(b))
	return y
}

func jfifUV(r, g, b int32) (uint8, uint8) {
	_, cb, cr := color.RGBToYCbCr(uint8(r), uint8(g), uint8(b))
	return cb, cr
}

type matrix struct {
	luma   func(r, g, b int32) uint8
	chroma func(r, g, b int32) (uint8, uint8)
}

func matrixFor(c Colorimetry) matrix {
	if c == JFIF {
		return matrix{luma: jfifY, chroma: jfifUV}
	}
	return matrix{luma: bt601Y, chroma: bt601UV}
}

// YUV returns the luma and chroma a single BGRA colour converts to
func YUV(c Colorimetry, blue, green, red uint8) (y, u, v uint8) {
	m := matrixFor(c)
	r, g, b := int32(red), int32(green), int32(blue)
	u, v = m.chroma(r, g, b)
	return m.luma(r, g, b), u, v
}

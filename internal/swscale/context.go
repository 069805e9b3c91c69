package swscale

/*
#include <stddef.h>

// libswscale ships inside the static FFmpeg archive linked by
// github.com/csnewman/ffmpeg-go; only the entry points used here are
// declared. Pixel formats are passed as int, the size of enum AVPixelFormat.
struct SwsContext;
struct SwsFilter;
struct AVFrame;

struct SwsContext *sws_getContext(int srcW, int srcH, int srcFormat,
                                  int dstW, int dstH, int dstFormat,
                                  int flags, struct SwsFilter *srcFilter,
                                  struct SwsFilter *dstFilter, const double *param);
int sws_scale_frame(struct SwsContext *c, struct AVFrame *dst, const struct AVFrame *src);
void sws_freeContext(struct SwsContext *swsContext);

#define SWS_BILINEAR 2
#define SWS_BICUBIC  4
#define SWS_POINT    0x10
*/
import "C"

import (
	"github.com/csnewman/ffmpeg-go"

	"github.com/linuxmatters/rawpipe/internal/convert"
)

// scaleContext is a libswscale context
type scaleContext struct {
	ptr *C.struct_SwsContext
}

func swsFlags(f convert.Filter) C.int {
	switch f {
	case convert.FilterBicubic:
		return C.SWS_BICUBIC
	case convert.FilterPoint:
		return C.SWS_POINT
	default:
		return C.SWS_BILINEAR
	}
}

// newScaleContext returns nil when libswscale rejects the conversion
func newScaleContext(srcW, srcH int, srcFmt ffmpeg.AVPixelFormat, dstW, dstH int, dstFmt ffmpeg.AVPixelFormat, filter convert.Filter) *scaleContext {
	ptr := C.sws_getContext(
		C.int(srcW), C.int(srcH), C.int(srcFmt),
		C.int(dstW), C.int(dstH), C.int(dstFmt),
		swsFlags(filter), nil, nil, nil)
	if ptr == nil {
		return nil
	}
	return &scaleContext{ptr: ptr}
}

// scaleFrame scales src into dst. Both frames must match the context's
// formats and sizes and have their buffers allocated.
func (s *scaleContext) scaleFrame(dst, src *ffmpeg.AVFrame) error {
	ret := C.sws_scale_frame(s.ptr,
		(*C.struct_AVFrame)(dst.RawPtr()),
		(*C.struct_AVFrame)(src.RawPtr()))
	return ffmpeg.WrapErr(int(ret))
}

func (s *scaleContext) free() {
	if s.ptr != nil {
		C.sws_freeContext(s.ptr)
		s.ptr = nil
	}
}

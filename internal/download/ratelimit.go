package download

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// throttledReader waits on a token bucket after each read so the body is
// consumed at no more than the limiter's rate in bytes per second.
type throttledReader struct {
	ctx context.Context
	r   io.Reader
	lim *rate.Limiter
}

// throttle wraps r to read at most bytesPerSec. A non-positive limit returns
// r unchanged.
func throttle(ctx context.Context, r io.Reader, bytesPerSec int64) io.Reader {
	if bytesPerSec <= 0 {
		return r
	}
	burst := int(bytesPerSec)
	if burst < chunkSize {
		burst = chunkSize
	}
	return &throttledReader{
		ctx: ctx,
		r:   r,
		lim: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if len(p) > t.lim.Burst() {
		p = p[:t.lim.Burst()]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if waitErr := t.lim.WaitN(t.ctx, n); waitErr != nil && err == nil {
			err = waitErr
		}
	}
	return n, err
}

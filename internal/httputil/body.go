// Package httputil holds HTTP helpers shared by the REST clients.
package httputil

import (
	"errors"
	"fmt"
	"io"
)

// Response size caps used by the REST clients.
const (
	MaxResponseBytes  = 8 << 20  // 8 MiB
	MaxErrorBodyBytes = 32 << 10 // 32 KiB
)

// ErrBodyTooLarge is returned by ReadAllStrict when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("response body too large")

// ReadAllStrict reads r fully, failing with ErrBodyTooLarge if it holds more
// than limit bytes.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, limit)
	}
	return data, nil
}

// ReadAllWithLimit reads at most limit bytes of r and reports whether the rest
// was dropped. Use it for error bodies, where a prefix is enough.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}

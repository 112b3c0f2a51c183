//go:build !linux

package seriallog

import "fmt"

const nativeSupported = false

func openNative(cfg PortConfig) (Port, error) {
	return nil, fmt.Errorf("%w: the native backend is only available on Linux", ErrInvalidConfig)
}

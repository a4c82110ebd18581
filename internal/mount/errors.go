// SPDX-License-Identifier: MPL-2.0

package mount

import (
	"errors"
	"fmt"
)

// RequiredStorageDriver is the only storage driver whose root filesystem can
// be translated.
const RequiredStorageDriver = "overlay2"

var (
	// ErrUnsupportedStorageDriver is the sentinel error wrapped by UnsupportedStorageDriverError.
	ErrUnsupportedStorageDriver = errors.New("unsupported storage driver")

	// ErrMountTranslation is returned when the current container's mount
	// table cannot be read.
	ErrMountTranslation = errors.New("mount translation failed")
)

// UnsupportedStorageDriverError is returned when the current container's root
// filesystem uses a driver other than overlay2.
type UnsupportedStorageDriverError struct {
	Driver string
}

func (e *UnsupportedStorageDriverError) Error() string {
	return fmt.Sprintf("want driver %s, got %s", RequiredStorageDriver, e.Driver)
}

// Unwrap returns ErrUnsupportedStorageDriver for errors.Is() compatibility.
func (e *UnsupportedStorageDriverError) Unwrap() error { return ErrUnsupportedStorageDriver }

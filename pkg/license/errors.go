package license

import "errors"

// ErrImageRequired is returned when a recognition call is given an empty buffer.
var ErrImageRequired = errors.New("image data required")

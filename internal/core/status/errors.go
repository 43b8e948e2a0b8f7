package status

import "errors"

var ErrStatusNotFound = errors.New("status: not found")

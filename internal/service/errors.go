package service

import "errors"

// ErrValidation marks user-supplied input the service refuses to persist.
// Handlers map it to a 400.
var ErrValidation = errors.New("validation error")

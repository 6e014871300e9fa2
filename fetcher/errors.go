package fetcher

import "errors"

// ErrNetwork signals a transport or connection level failure
var ErrNetwork = errors.New("network error")

// ErrTimeout signals the request exceeded the configured deadline
var ErrTimeout = errors.New("request timed out")

// ErrParse signals the body is not valid JSON or lacks the value path
var ErrParse = errors.New("parse error")

// ErrInvalidValue signals the numeric field violates the reading invariant
var ErrInvalidValue = errors.New("invalid value")

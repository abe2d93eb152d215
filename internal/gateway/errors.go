package gateway

import "errors"

var (
	// ErrNoSession is returned when an operation needs an active session and
	// none is held (e.g. refreshing before any sign-in).
	ErrNoSession = errors.New("no active session")

	// ErrObjectExists is returned by Upload when the target path is taken and
	// upsert was not requested.
	ErrObjectExists = errors.New("object already exists")
)

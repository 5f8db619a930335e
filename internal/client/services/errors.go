package services

import "errors"

var (
	// ErrNoSession is returned without any network call when no credential
	// is available.
	ErrNoSession = errors.New("not signed in")
	// ErrSuperseded is returned by a mutation that a newer call of the same
	// kind replaced.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrNoAvatarURL means the upload succeeded but the response carried no
	// usable avatar_url.
	ErrNoAvatarURL = errors.New("server returned no avatar url")
)

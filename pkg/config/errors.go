package config

import "github.com/oneconcern/gitstamp/pkg/errors"

// ErrConfig indicates invalid or unreadable settings
var ErrConfig = errors.New("invalid configuration")

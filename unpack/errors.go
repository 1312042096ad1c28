package unpack

import "errors"

// ErrManifest is returned when a manifest cannot be decoded or is incomplete.
var ErrManifest = errors.New("unpack: invalid manifest")

package hll

import "errors"

// ErrShortHash is returned by Add when the hashed value passed in is
// shorter than MinHashLen bytes.
var ErrShortHash = errors.New("hll: hashed value shorter than minimum required length")

// ErrCorrupt is returned by Parse when the input cannot be decoded as a
// sketch, and by Fold if it observes a state that should be structurally
// impossible (a sign of caller-side buffer corruption rather than a normal
// usage error).
var ErrCorrupt = errors.New("hll: corrupt or invalid sketch data")

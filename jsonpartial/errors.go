package jsonpartial

import "errors"

// ErrUnhealable is returned by Partial.Heal when the truncation happened
// mid-identifier (e.g. "tru" of "true"): there is no way to tell what the
// writer intended without guessing, so the caller must wait for more
// input instead.
var ErrUnhealable = errors.New("jsonpartial: truncated mid-identifier, cannot heal")

// ErrUnknownLocation is returned when a partial's flags don't correspond
// to any of the documented truncation positions; it signals a bug in the
// classifier rather than a normal streaming state.
var ErrUnknownLocation = errors.New("jsonpartial: truncated in an unrecognized location")

package genai

import "errors"

// ErrUnavailable indicates an external AI backend (generation, embedding or
// search) was unreachable or returned an error. Checked with errors.Is();
// best-effort components convert it into degraded results instead of
// propagating.
var ErrUnavailable = errors.New("external service unavailable")

// Package repository loads seat-map documents.  A document is an opaque
// blob; decoding it is the model package's job.  Sources are either the
// MySQL seat_maps table or the map document HTTP API, and can be chained
// so a map missing from one is looked up in the next.
package repository

import "errors"

// ErrMapNotFound is returned when no source holds the requested map.
// Handlers should translate this into an HTTP 404 response.
var ErrMapNotFound = errors.New("seat map not found")

// ErrSourceUnavailable wraps transport failures of a map source so
// callers can tell "missing" from "could not ask".
var ErrSourceUnavailable = errors.New("seat map source unavailable")

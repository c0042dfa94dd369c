package resilience

import "errors"

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

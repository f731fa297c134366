// Package fault defines the error taxonomy shared by blocks and hosts.
//
// Every recoverable failure returned from warmup or activation is a *Error
// carrying a Kind and a short diagnostic. Hosts match kinds with errors.Is:
//
//	if errors.Is(err, fault.ErrNotFound) {
//	    // abort the pass, the simulation or a body is gone
//	}
//
// Contract violations (using a binding outside its warmup/cleanup bracket,
// activating an instance that was never warmed) are programming errors and
// panic through Violation instead of being returned.
package fault

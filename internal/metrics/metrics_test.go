package metrics

import "testing"

func TestRegisterIdempotent(t *testing.T) {
	// MustRegister panics on duplicates; repeated calls must be safe.
	Register()
	Register()

	IncHTTP("bookings")
	IncMutation("create", "ok")
	IncPersistFailure()
	IncAI("chat", "error")
}

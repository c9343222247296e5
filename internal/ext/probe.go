package ext

// Availability is the outcome of a dependency probe. A probe never fails
// with an error: absence of the capability is a normal outcome carried in
// Reason.
type Availability struct {
	OK     bool
	Reason string
}

// ProbeFunc checks whether an optional capability is usable in the current
// environment. Probes must be read-only and fast; a partially usable
// capability (wrong version, broken runtime prerequisite) is reported as
// unavailable rather than propagated as a lower-level error.
type ProbeFunc func() Availability

// Available reports a usable capability.
func Available() Availability {
	return Availability{OK: true}
}

// Unavailable reports a missing or unusable capability.
func Unavailable(reason string) Availability {
	return Availability{OK: false, Reason: reason}
}

func (a Availability) String() string {
	if a.OK {
		return "available"
	}
	if a.Reason == "" {
		return "unavailable"
	}
	return "unavailable: " + a.Reason
}

package ext

import "fmt"

// MissingDependencyError is returned by Register when the dependency probe
// reports the capability unavailable. It surfaces at registration time,
// never at plot time, so the failure is immediate and actionable.
type MissingDependencyError struct {
	Name       string // extension name
	Capability string // probed capability
	Reason     string // probe outcome
	Hint       string // remediation, names the package to install
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("extension %q: missing dependency %q", e.Name, e.Capability)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// NotRegisteredError is returned by Unregister for a name with no active
// registration.
type NotRegisteredError struct {
	Name string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("extension %q is not registered", e.Name)
}

// UnknownExtensionError is returned by host accessors when a name matches
// no registered extension.
type UnknownExtensionError struct {
	Name string
}

func (e *UnknownExtensionError) Error() string {
	return fmt.Sprintf("unknown extension %q", e.Name)
}

package host

// EnvironmentError reports that the run cannot start because something the
// host expected from its environment is missing, typically the program
// itself. It is raised before any run state is built, so a failed start
// leaves nothing behind.
type EnvironmentError struct {
	// Missing states what could not be found.
	Missing string
	// Remediation is operator guidance printed alongside the message.
	Remediation string
}

func (e *EnvironmentError) Error() string {
	if e.Remediation == "" {
		return e.Missing
	}
	return e.Missing + "\n" + e.Remediation
}

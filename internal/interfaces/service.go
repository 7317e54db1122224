package interfaces

// Service interface defines the methods that every kind of interface the
// daemon is served through must be compliant with.
type Service interface {
	Start() error
	Stop() error
	// Wait blocks until the service is stopped.
	Wait() error
}

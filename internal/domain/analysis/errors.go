package analysis

import "fmt"

// ServiceError carries the collaborator's optional human-readable detail.
// The remote adapters translate non-success responses into this type so the
// application layer never parses response shapes itself.
type ServiceError struct {
	Status int
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("API error: %d", e.Status)
}

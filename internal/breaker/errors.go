package breaker

import "fmt"

// OpenError is raised by Call when the breaker is Open and the cooldown
// has not elapsed. Fallback carries the value a resolved fallback handler
// produced, or nil if none applied.
type OpenError struct {
	Name     string
	Fallback interface{}
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuitscope: breaker %q is open", e.Name)
}

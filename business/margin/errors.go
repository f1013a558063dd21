package margin

import "fmt"

// DataError marks a malformed observation. The affected arm is excluded from
// the cycle and the exclusion recorded; the run itself continues.
type DataError struct {
	ArmID  string
	Field  string
	Detail string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("arm %q: bad %s: %s", e.ArmID, e.Field, e.Detail)
}

// ConfigError is fatal for a single endpoint's cycle; other endpoints proceed.
type ConfigError struct {
	EndpointID string
	Detail     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("endpoint %q: invalid config: %s", e.EndpointID, e.Detail)
}

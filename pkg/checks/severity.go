package checks

import "fmt"

// Severity grades how alarming a degraded or failed outcome is. It is
// informational only and never changes a scheduling decision.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Validate returns an error if s is not a known severity.
func (s Severity) Validate() error {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return nil
	default:
		return fmt.Errorf("unknown severity %q", string(s))
	}
}

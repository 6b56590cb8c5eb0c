package diagnostics

import "fmt"

// PreflightResult is the outcome of a preflight resource check.
type PreflightResult struct {
	OK      bool
	Warning string
}

// CheckMemory warns (without failing) when available memory falls
// below minFreeMB. minFreeMB <= 0 disables the check. A failure to
// read memory status is treated as OK: the check is advisory, not a
// gate on the run.
func CheckMemory(minFreeMB int) PreflightResult {
	if minFreeMB <= 0 {
		return PreflightResult{OK: true}
	}

	status, err := ReadMemoryStatus()
	if err != nil {
		return PreflightResult{OK: true}
	}

	if status.AvailableMB < float64(minFreeMB) {
		return PreflightResult{
			OK: false,
			Warning: fmt.Sprintf(
				"low memory before fan-out: %.0fMB available (minimum: %dMB)",
				status.AvailableMB, minFreeMB,
			),
		}
	}
	return PreflightResult{OK: true}
}

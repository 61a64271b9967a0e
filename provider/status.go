package provider

// StatusTable folds a provider's native status strings into PaymentStatus.
// Anything not listed resolves to StatusFailed.
type StatusTable struct {
	Success []string
	Pending []string
}

// Resolve maps a native status value
func (t StatusTable) Resolve(value string) PaymentStatus {
	for _, s := range t.Success {
		if s == value {
			return StatusSuccess
		}
	}
	for _, s := range t.Pending {
		if s == value {
			return StatusPending
		}
	}
	return StatusFailed
}

// AnySuccess resolves to StatusSuccess when at least one signal reports success
func AnySuccess(signals ...bool) PaymentStatus {
	for _, ok := range signals {
		if ok {
			return StatusSuccess
		}
	}
	return StatusFailed
}

// FirstNonEmpty returns the first non-empty value
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package domain

// Payment Statuses reported by the MoMo collector
const (
	PaymentStatusSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusSuccessful,
	PaymentStatusPending,
	PaymentStatusFailed,
}

// ParsePaymentStatus maps the collector's status string; anything unknown is FAILED.
func ParsePaymentStatus(s string) PaymentStatus {
	for _, st := range PaymentStatuses {
		if string(st) == s {
			return st
		}
	}
	return PaymentStatusFailed
}

// Terminal reports whether no further status change is expected.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccessful || s == PaymentStatusFailed
}

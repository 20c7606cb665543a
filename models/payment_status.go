package models

type PaymentStatus int

const (
	PaymentStatusProcessing PaymentStatus = 0
	PaymentStatusFailed     PaymentStatus = 1
	PaymentStatusRejected   PaymentStatus = 2
	PaymentStatusSuccess    PaymentStatus = 3
)

func (ps PaymentStatus) String() string {
	switch ps {
	case PaymentStatusProcessing:
		return "processing"
	case PaymentStatusFailed:
		return "failed"
	case PaymentStatusRejected:
		return "rejected"
	case PaymentStatusSuccess:
		return "success"
	default:
		return "unknown"
	}
}

func (ps PaymentStatus) IsValid() bool {
	return ps >= PaymentStatusProcessing && ps <= PaymentStatusSuccess
}

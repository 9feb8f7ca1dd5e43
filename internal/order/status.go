package order

type Status string

const (
	// StatusPending orders were created with less paid than their total.
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	// StatusAmended is set on an order once a later order amends it.
	StatusAmended Status = "amended"
)

func statusFor(o NewOrder) Status {
	if o.PaidAmount+1e-9 >= o.Total {
		return StatusCompleted
	}
	return StatusPending
}

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusAmended:
		return true
	}
	return false
}

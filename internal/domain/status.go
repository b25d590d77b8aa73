package domain

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusPreparing  Status = "preparing"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"

	// WhatsApp conversations that moved off-platform before fulfilment.
	// Reachable only from pending or accepted.
	StatusCompletedWhatsApp    Status = "completed_whatsapp"
	StatusNotCompletedWhatsApp Status = "not_completed_whatsapp"
)

// transitions is the single source of truth for legal status moves.
// The admin UI derives its buttons from the same table, but legality is
// enforced here on the server regardless of caller.
var transitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled, StatusCompletedWhatsApp, StatusNotCompletedWhatsApp},
	StatusAccepted:   {StatusPreparing, StatusCompletedWhatsApp, StatusNotCompletedWhatsApp},
	StatusPreparing:  {StatusDelivering},
	StatusDelivering: {StatusDelivered},
}

// IsValid reports whether s is a member of the status enum.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusPreparing, StatusDelivering,
		StatusDelivered, StatusCancelled, StatusCompletedWhatsApp, StatusNotCompletedWhatsApp:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.IsValid()
}

package booking

// transitions is the approval workflow: a pending reservation is approved,
// rejected, or withdrawn; a confirmed reservation may only be cancelled.
// Nothing leaves a terminal status.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

// ValidTransition reports whether the workflow permits moving a reservation
// from one status to another.
func ValidTransition(from, to ReservationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RequiresReason reports whether a transition into the status must carry an
// explanation for the requester.
func RequiresReason(to ReservationStatus) bool {
	return to == StatusRejected || to == StatusCancelled
}

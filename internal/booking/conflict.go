package booking

// Overlapping returns the reservations on the given resource whose windows
// intersect the candidate window and whose status still blocks the slot.
// Rejected and cancelled reservations never block. A reservation matching
// excludeID is skipped so a record can be re-validated against its peers.
func Overlapping(candidate Window, resourceID string, existing []Reservation, excludeID string) []Reservation {
	var overlaps []Reservation
	for _, reservation := range existing {
		if reservation.ResourceID != resourceID {
			continue
		}
		if excludeID != "" && reservation.ID == excludeID {
			continue
		}
		if !reservation.Status.Blocking() {
			continue
		}
		if candidate.Overlaps(reservation.Window) {
			overlaps = append(overlaps, reservation)
		}
	}
	return overlaps
}

// HasConflict reports whether any pending or confirmed reservation on the
// resource overlaps the candidate window.
func HasConflict(candidate Window, resourceID string, existing []Reservation, excludeID string) bool {
	return len(Overlapping(candidate, resourceID, existing, excludeID)) > 0
}

// ConflictingConfirmed returns the id of the first confirmed reservation on
// the resource that overlaps the candidate window. Pending peers do not
// count: approval follows first-approved-wins, not first-created-wins.
func ConflictingConfirmed(candidate Window, resourceID string, existing []Reservation, excludeID string) (string, bool) {
	for _, reservation := range Overlapping(candidate, resourceID, existing, excludeID) {
		if reservation.Status == StatusConfirmed {
			return reservation.ID, true
		}
	}
	return "", false
}

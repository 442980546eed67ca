package booking

// ResourceStatus classifies a resource at a reference instant.
type ResourceStatus string

const (
	// ResourceAvailable means no blocking reservation covers the instant.
	ResourceAvailable ResourceStatus = "available"
	// ResourceReserved means a confirmed reservation covers the instant.
	ResourceReserved ResourceStatus = "reserved"
	// ResourcePendingHold means only unapproved reservations cover the instant.
	ResourcePendingHold ResourceStatus = "pending_hold"
	// ResourceUnavailable means the resource is in maintenance or retired.
	ResourceUnavailable ResourceStatus = "unavailable"
)

// Occupied reports whether the status counts toward occupancy.
func (s ResourceStatus) Occupied() bool {
	return s == ResourceReserved || s == ResourcePendingHold
}

// StatusOf classifies one resource at the given instant. Evaluation is
// pull-based: callers re-invoke it whenever the instant or the reservation
// set changes, so no derived state can go stale.
func StatusOf(resource Resource, at Instant, reservations []Reservation) ResourceStatus {
	if resource.State != StateActive {
		return ResourceUnavailable
	}

	pendingHold := false
	for _, reservation := range reservations {
		if reservation.ResourceID != resource.ID || !reservation.Status.Blocking() {
			continue
		}
		if !reservation.Window.Covers(at) {
			continue
		}
		if reservation.Status == StatusConfirmed {
			return ResourceReserved
		}
		pendingHold = true
	}

	if pendingHold {
		return ResourcePendingHold
	}
	return ResourceAvailable
}

// OccupancyRate returns the share of active resources that are reserved or
// pending-held at the given instant. A pool with no active resources yields 0.
func OccupancyRate(resources []Resource, reservations []Reservation, at Instant) float64 {
	active := 0
	occupied := 0
	for _, resource := range resources {
		if resource.State != StateActive {
			continue
		}
		active++
		if StatusOf(resource, at, reservations).Occupied() {
			occupied++
		}
	}
	if active == 0 {
		return 0
	}
	return float64(occupied) / float64(active)
}

package enums

import "fmt"

// ReservationStatus tracks the lifecycle of a booking.
type ReservationStatus string

const (
	ReservationStatusBooked    ReservationStatus = "booked"
	ReservationStatusCheckedIn ReservationStatus = "checked_in"
	ReservationStatusSeated    ReservationStatus = "seated"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusBooked,
	ReservationStatusCheckedIn,
	ReservationStatusSeated,
	ReservationStatusCancelled,
}

// Holding reports whether the reservation still claims its tables.
func (r ReservationStatus) Holding() bool {
	return r == ReservationStatusBooked || r == ReservationStatusCheckedIn
}

// String implements fmt.Stringer.
func (r ReservationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReservationStatus.
func (r ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}

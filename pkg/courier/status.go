package courier

// ShipmentStatus represents the normalized lifecycle status of a shipment.
// Transitions are driven only by provider responses, never set directly by
// callers.
type ShipmentStatus string

const (
	StatusCreated      ShipmentStatus = "CREATED"
	StatusInTransit    ShipmentStatus = "IN_TRANSIT"
	StatusDelivered    ShipmentStatus = "DELIVERED"
	StatusUndelivered  ShipmentStatus = "UNDELIVERED"
	StatusRTOInTransit ShipmentStatus = "RTO_IN_TRANSIT"
	StatusRTODelivered ShipmentStatus = "RTO_DELIVERED"
	StatusLost         ShipmentStatus = "LOST"
	StatusCancelled    ShipmentStatus = "CANCELLED"
)

// transitions holds the allowed next states per status. Terminal states have
// no entries; a same-state transition is always a permitted no-op.
var transitions = map[ShipmentStatus][]ShipmentStatus{
	StatusCreated:      {StatusInTransit, StatusCancelled, StatusLost},
	StatusInTransit:    {StatusDelivered, StatusUndelivered, StatusCancelled, StatusLost},
	StatusUndelivered:  {StatusRTOInTransit, StatusDelivered, StatusInTransit, StatusLost},
	StatusRTOInTransit: {StatusRTODelivered, StatusLost},
}

// Terminal reports whether s is a terminal status.
func (s ShipmentStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusRTODelivered, StatusLost, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a shipment in status s may move to next.
// A no-op transition to the same status is always allowed.
func (s ShipmentStatus) CanTransition(next ShipmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status value.
func (s ShipmentStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusInTransit, StatusDelivered, StatusUndelivered,
		StatusRTOInTransit, StatusRTODelivered, StatusLost, StatusCancelled:
		return true
	}
	return false
}

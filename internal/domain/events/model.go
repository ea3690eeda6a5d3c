package events

import "time"

// EventType clasifica los eventos del ciclo de vida de un animal.
// @Enum NOTE, BIRTH, PREGNANCY, DRYOFF, TREATMENT, SLAUGHTER, SALE
type EventType string

const (
	TypeNote      EventType = "NOTE"
	TypeBirth     EventType = "BIRTH"
	TypePregnancy EventType = "PREGNANCY"
	TypeDryoff    EventType = "DRYOFF"
	TypeTreatment EventType = "TREATMENT"
	TypeSlaughter EventType = "SLAUGHTER"
	TypeSale      EventType = "SALE"
)

func ValidType(t EventType) bool {
	switch t {
	case TypeNote, TypeBirth, TypePregnancy, TypeDryoff, TypeTreatment, TypeSlaughter, TypeSale:
		return true
	}
	return false
}

// EventStatus: los eventos no se borran, se anulan.
// @Enum active, voided
type EventStatus string

const (
	StatusActive EventStatus = "active"
	StatusVoided EventStatus = "voided"
)

// AnimalEvent es una entrada del historial de un animal.
type AnimalEvent struct {
	ID       string
	AnimalID string

	Type EventType

	OccurredAt time.Time
	RecordedAt time.Time

	Description string
	RecordedBy  string

	Status EventStatus
}

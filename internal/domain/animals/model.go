package animals

import (
	"strings"
	"time"
)

// Species define las especies manejadas en la granja.
// La tabla animals es única; species discrimina.
// @Enum RABBIT, COW, SHEEP, CHICKEN, GOAT
type Species string

const (
	SpeciesRabbit  Species = "RABBIT"
	SpeciesCow     Species = "COW"
	SpeciesSheep   Species = "SHEEP"
	SpeciesChicken Species = "CHICKEN"
	SpeciesGoat    Species = "GOAT"
)

func ValidSpecies(s Species) bool {
	switch s {
	case SpeciesRabbit, SpeciesCow, SpeciesSheep, SpeciesChicken, SpeciesGoat:
		return true
	}
	return false
}

// ParseSpecies acepta el segmento de URL (rabbit, cow...) en cualquier caso.
func ParseSpecies(s string) (Species, bool) {
	sp := Species(strings.ToUpper(strings.TrimSpace(s)))
	return sp, ValidSpecies(sp)
}

// Gender del animal.
// @Enum MALE, FEMALE
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Origin indica cómo llegó el animal a la granja.
// BORN permite padres (mother_id/father_id); PURCHASED permite datos de compra.
// @Enum BORN, PURCHASED
type Origin string

const (
	OriginBorn      Origin = "BORN"
	OriginPurchased Origin = "PURCHASED"
)

// Status es el ciclo de vida del animal.
// SOLD se setea únicamente junto con la creación de su AnimalSale.
// @Enum ACTIVE, SOLD, DISCARDED, SLAUGHTERED
type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusSold        Status = "SOLD"
	StatusDiscarded   Status = "DISCARDED"
	StatusSlaughtered Status = "SLAUGHTERED"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusSold, StatusDiscarded, StatusSlaughtered:
		return true
	}
	return false
}

// Animal es el registro unificado de ganado.
// Un animal referenciado por una venta nunca se borra físicamente.
type Animal struct {
	ID      string
	Species Species

	Name  string
	Tag   string // caravana / arete identificatorio
	Image string

	BirthDate *time.Time
	Gender    Gender

	Origin   Origin
	MotherID *string
	FatherID *string

	PurchaseDate   *time.Time
	PurchasePrice  *float64
	PurchaseVendor string

	IsBreeder bool

	Status       Status
	StatusReason string

	SlaughteredDate *time.Time
	InFreezer       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sellable indica si el animal puede venderse: activo, o sacrificado
// mientras siga en congelador.
func (a Animal) Sellable() bool {
	if a.Status == StatusActive {
		return true
	}
	return a.Status == StatusSlaughtered && a.InFreezer
}

// ParentRef es el resumen de un padre/madre para respuestas.
type ParentRef struct {
	ID      string
	Name    string
	Species Species
}

// ChildRef es el resumen de una cría para respuestas.
type ChildRef struct {
	ID        string
	Name      string
	Species   Species
	Gender    Gender
	BirthDate *time.Time
}

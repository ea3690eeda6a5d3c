package sales

import (
	"time"

	"granjas-del-carmen/internal/domain/animals"
)

// Sale registra la venta de un animal. Se crea en la misma transacción
// que marca al animal como SOLD; después es inmutable salvo correcciones,
// que dejan rastro en Correction.
type Sale struct {
	ID       string
	AnimalID string
	Species  animals.Species

	Price  float64
	Weight *float64 // gramos al momento de la venta
	Height *float64

	Buyer string
	Notes string

	SoldBy string // subject del usuario que vendió
	SoldAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Correction es el registro de auditoría de una corrección sobre una venta.
// Las ventas no se pisan en silencio: cada corrección guarda los valores
// anteriores y quién corrigió.
type Correction struct {
	ID     string
	SaleID string

	OldPrice float64
	NewPrice float64
	OldBuyer string
	NewBuyer string

	Reason      string
	CorrectedBy string
	CorrectedAt time.Time
}

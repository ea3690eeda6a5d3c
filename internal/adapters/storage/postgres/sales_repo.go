package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"granjas-del-carmen/internal/domain/animals"
	"granjas-del-carmen/internal/domain/sales"
)

type SalesRepo struct {
	db *sql.DB
}

func NewSalesRepo(db *sql.DB) *SalesRepo {
	return &SalesRepo{db: db}
}

const saleColumns = `
	id, animal_id, species,
	price, weight, height,
	buyer, notes,
	sold_by, sold_at,
	created_at, updated_at
`

// CreateAndMarkSold inserta la venta y marca el animal como SOLD en una
// única transacción. El UPDATE es condicional sobre el estado vendible:
// si otra venta ganó la carrera, afecta 0 filas y se hace rollback.
func (r *SalesRepo) CreateAndMarkSold(ctx context.Context, s sales.Sale, statusReason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE animals
		SET
			status = 'SOLD',
			status_reason = $2,
			in_freezer = false,
			updated_at = $3
		WHERE id = $1
		  AND (status = 'ACTIVE' OR (status = 'SLAUGHTERED' AND in_freezer))
	`, s.AnimalID, statusReason, s.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// o no existe, o ya no es vendible; el service ya chequeó existencia
		return animals.ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO animal_sales (
			id, animal_id, species,
			price, weight, height,
			buyer, notes,
			sold_by, sold_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		s.ID,
		s.AnimalID,
		string(s.Species),
		s.Price,
		toNullFloat(s.Weight),
		toNullFloat(s.Height),
		s.Buyer,
		s.Notes,
		s.SoldBy,
		s.SoldAt,
		s.CreatedAt,
		s.UpdatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SalesRepo) GetByID(ctx context.Context, id string) (sales.Sale, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return sales.Sale{}, sales.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM animal_sales WHERE id = $1`, id)
	return scanSale(row)
}

func (r *SalesRepo) List(ctx context.Context, filter sales.ListFilter) ([]sales.Sale, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + saleColumns + ` FROM animal_sales WHERE 1=1`)

	args := []any{}
	argN := 1

	if filter.Species != "" {
		sb.WriteString(fmt.Sprintf(" AND species = $%d", argN))
		args = append(args, string(filter.Species))
		argN++
	}
	if strings.TrimSpace(filter.SoldBy) != "" {
		sb.WriteString(fmt.Sprintf(" AND sold_by = $%d", argN))
		args = append(args, strings.TrimSpace(filter.SoldBy))
		argN++
	}

	if filter.Sort == "asc" {
		sb.WriteString(" ORDER BY sold_at ASC")
	} else {
		sb.WriteString(" ORDER BY sold_at DESC")
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sales.Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SalesRepo) ListByAnimal(ctx context.Context, animalID string) ([]sales.Sale, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+saleColumns+`
		FROM animal_sales
		WHERE animal_id = $1
		ORDER BY sold_at DESC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sales.Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Correct actualiza la venta y guarda la fila de auditoría en la misma
// transacción; nunca queda una corrección sin su venta actualizada.
func (r *SalesRepo) Correct(ctx context.Context, c sales.Correction) (sales.Sale, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return sales.Sale{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE animal_sales
		SET
			price = $2,
			buyer = $3,
			updated_at = $4
		WHERE id = $1
	`, c.SaleID, c.NewPrice, c.NewBuyer, c.CorrectedAt)
	if err != nil {
		return sales.Sale{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sales.Sale{}, sales.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sale_corrections (
			id, sale_id,
			old_price, new_price,
			old_buyer, new_buyer,
			reason, corrected_by, corrected_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		c.ID,
		c.SaleID,
		c.OldPrice,
		c.NewPrice,
		c.OldBuyer,
		c.NewBuyer,
		c.Reason,
		c.CorrectedBy,
		c.CorrectedAt,
	); err != nil {
		return sales.Sale{}, err
	}

	row := tx.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM animal_sales WHERE id = $1`, c.SaleID)
	s, err := scanSale(row)
	if err != nil {
		return sales.Sale{}, err
	}

	if err := tx.Commit(); err != nil {
		return sales.Sale{}, err
	}
	return s, nil
}

func (r *SalesRepo) ListCorrections(ctx context.Context, saleID string) ([]sales.Correction, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, sale_id,
			old_price, new_price,
			old_buyer, new_buyer,
			reason, corrected_by, corrected_at
		FROM sale_corrections
		WHERE sale_id = $1
		ORDER BY corrected_at ASC
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sales.Correction, 0)
	for rows.Next() {
		var c sales.Correction
		if err := rows.Scan(
			&c.ID,
			&c.SaleID,
			&c.OldPrice,
			&c.NewPrice,
			&c.OldBuyer,
			&c.NewBuyer,
			&c.Reason,
			&c.CorrectedBy,
			&c.CorrectedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanSale(row rowScanner) (sales.Sale, error) {
	var s sales.Sale
	var species string
	var weight, height sql.NullFloat64

	if err := row.Scan(
		&s.ID,
		&s.AnimalID,
		&species,
		&s.Price,
		&weight,
		&height,
		&s.Buyer,
		&s.Notes,
		&s.SoldBy,
		&s.SoldAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return sales.Sale{}, sales.ErrNotFound
		}
		return sales.Sale{}, err
	}

	s.Species = animals.Species(species)
	s.Weight = fromNullFloat(weight)
	s.Height = fromNullFloat(height)

	return s, nil
}

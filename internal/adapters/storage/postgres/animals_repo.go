package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"granjas-del-carmen/internal/domain/animals"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

const animalColumns = `
	id, species,
	name, tag, image,
	gender, birth_date,
	origin, mother_id, father_id,
	purchase_date, purchase_price, purchase_vendor,
	is_breeder,
	status, status_reason,
	slaughtered_date, in_freezer,
	created_at, updated_at
`

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (
			id, species,
			name, tag, image,
			gender, birth_date,
			origin, mother_id, father_id,
			purchase_date, purchase_price, purchase_vendor,
			is_breeder,
			status, status_reason,
			slaughtered_date, in_freezer,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		a.ID,
		string(a.Species),
		a.Name,
		a.Tag,
		a.Image,
		string(a.Gender),
		toNullDate(a.BirthDate),
		string(a.Origin),
		toNullString(a.MotherID),
		toNullString(a.FatherID),
		toNullDate(a.PurchaseDate),
		toNullFloat(a.PurchasePrice),
		a.PurchaseVendor,
		a.IsBreeder,
		string(a.Status),
		a.StatusReason,
		toNullDate(a.SlaughteredDate),
		a.InFreezer,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return animals.ErrConflict
	}
	return err
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET
			name = $2,
			tag = $3,
			image = $4,
			gender = $5,
			birth_date = $6,
			origin = $7,
			mother_id = $8,
			father_id = $9,
			purchase_date = $10,
			purchase_price = $11,
			purchase_vendor = $12,
			is_breeder = $13,
			status = $14,
			status_reason = $15,
			slaughtered_date = $16,
			in_freezer = $17,
			updated_at = $18
		WHERE id = $1
	`,
		a.ID,
		a.Name,
		a.Tag,
		a.Image,
		string(a.Gender),
		toNullDate(a.BirthDate),
		string(a.Origin),
		toNullString(a.MotherID),
		toNullString(a.FatherID),
		toNullDate(a.PurchaseDate),
		toNullFloat(a.PurchasePrice),
		a.PurchaseVendor,
		a.IsBreeder,
		string(a.Status),
		a.StatusReason,
		toNullDate(a.SlaughteredDate),
		a.InFreezer,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return animals.ErrConflict
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, animals.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id)
	return scanAnimal(row)
}

func (r *AnimalsRepo) List(ctx context.Context, filter animals.ListFilter) ([]animals.Animal, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + animalColumns + ` FROM animals WHERE species = $1`)

	args := []any{string(filter.Species)}
	argN := 2

	if filter.Gender != "" {
		sb.WriteString(fmt.Sprintf(" AND gender = $%d", argN))
		args = append(args, string(filter.Gender))
		argN++
	}
	if filter.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(filter.Status))
		argN++
	}

	switch filter.Sort {
	case "asc":
		sb.WriteString(" ORDER BY birth_date ASC NULLS LAST")
	case "desc":
		sb.WriteString(" ORDER BY birth_date DESC NULLS LAST")
	default:
		sb.WriteString(" ORDER BY created_at ASC")
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		// animal_sales referencia con ON DELETE RESTRICT
		if isForeignKeyViolation(err) {
			return animals.ErrConflict
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) ListChildren(ctx context.Context, id string) ([]animals.ChildRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, species, gender, birth_date
		FROM animals
		WHERE (mother_id = $1 OR father_id = $1)
		  AND status <> 'DISCARDED'
		ORDER BY birth_date DESC NULLS LAST
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.ChildRef, 0)
	for rows.Next() {
		var c animals.ChildRef
		var species, gender string
		var bd sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &species, &gender, &bd); err != nil {
			return nil, err
		}
		c.Species = animals.Species(species)
		c.Gender = animals.Gender(gender)
		c.BirthDate = fromNullTime(bd)
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanAnimal(row rowScanner) (animals.Animal, error) {
	var a animals.Animal
	var species, gender, origin, status string
	var birthDate, purchaseDate, slaughteredDate sql.NullTime
	var motherID, fatherID sql.NullString
	var purchasePrice sql.NullFloat64

	if err := row.Scan(
		&a.ID,
		&species,
		&a.Name,
		&a.Tag,
		&a.Image,
		&gender,
		&birthDate,
		&origin,
		&motherID,
		&fatherID,
		&purchaseDate,
		&purchasePrice,
		&a.PurchaseVendor,
		&a.IsBreeder,
		&status,
		&a.StatusReason,
		&slaughteredDate,
		&a.InFreezer,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return animals.Animal{}, animals.ErrNotFound
		}
		return animals.Animal{}, err
	}

	a.Species = animals.Species(species)
	a.Gender = animals.Gender(gender)
	a.Origin = animals.Origin(origin)
	a.Status = animals.Status(status)
	a.BirthDate = fromNullTime(birthDate)
	a.PurchaseDate = fromNullTime(purchaseDate)
	a.SlaughteredDate = fromNullTime(slaughteredDate)
	a.MotherID = fromNullString(motherID)
	a.FatherID = fromNullString(fatherID)
	a.PurchasePrice = fromNullFloat(purchasePrice)

	return a, nil
}

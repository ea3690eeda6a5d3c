package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"granjas-del-carmen/internal/domain/events"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) Create(ctx context.Context, e events.AnimalEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animal_events (
			id, animal_id,
			type, occurred_at, recorded_at,
			description, recorded_by,
			status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		e.ID,
		e.AnimalID,
		string(e.Type),
		e.OccurredAt,
		e.RecordedAt,
		e.Description,
		e.RecordedBy,
		string(e.Status),
	)
	return err
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (events.AnimalEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.AnimalEvent{}, events.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, animal_id,
			type, occurred_at, recorded_at,
			description, recorded_by,
			status
		FROM animal_events
		WHERE id = $1
	`, id)

	var e events.AnimalEvent
	var typ, status string
	if err := row.Scan(
		&e.ID,
		&e.AnimalID,
		&typ,
		&e.OccurredAt,
		&e.RecordedAt,
		&e.Description,
		&e.RecordedBy,
		&status,
	); err != nil {
		if err == sql.ErrNoRows {
			return events.AnimalEvent{}, events.ErrNotFound
		}
		return events.AnimalEvent{}, err
	}

	e.Type = events.EventType(typ)
	e.Status = events.EventStatus(status)
	return e, nil
}

func (r *EventsRepo) ListByAnimal(ctx context.Context, animalID string, filter events.ListFilter) ([]events.AnimalEvent, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			id, animal_id,
			type, occurred_at, recorded_at,
			description, recorded_by,
			status
		FROM animal_events
		WHERE animal_id = $1
	`)

	args := []any{animalID}
	argN := 2

	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(t))
			argN++
		}
		sb.WriteString(" AND type IN (" + strings.Join(placeholders, ",") + ")")
	}

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	sb.WriteString(" ORDER BY occurred_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.AnimalEvent, 0)
	for rows.Next() {
		var e events.AnimalEvent
		var typ, status string
		if err := rows.Scan(
			&e.ID,
			&e.AnimalID,
			&typ,
			&e.OccurredAt,
			&e.RecordedAt,
			&e.Description,
			&e.RecordedBy,
			&status,
		); err != nil {
			return nil, err
		}
		e.Type = events.EventType(typ)
		e.Status = events.EventStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventsRepo) Void(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE animal_events
		SET status = 'voided'
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrNotFound
	}
	return nil
}

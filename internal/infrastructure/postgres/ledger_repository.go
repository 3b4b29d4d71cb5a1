package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// LedgerRepo implementación del libro de movimientos sobre PostgreSQL
// (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// NewLedgerRepo crea el repositorio sobre un pool o una transacción.
func NewLedgerRepo(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerColumns = `id, occurred_on, recorded_at, item_code, item_name, unit,
	kind, direction, quantity, warehouse, address, dest_warehouse, dest_address,
	min_stock_hint, attachments, actor`

// Append inserta el registro. recorded_at lo asigna la base con
// clock_timestamp() para garantizar el orden total del libro; se devuelve
// en el entity.
func (r *LedgerRepo) Append(record *entity.MovementRecord) error {
	ctx := context.Background()
	err := r.q.QueryRow(ctx, `
		INSERT INTO movement_records (
			id, occurred_on, recorded_at, item_code, item_name, unit,
			kind, direction, quantity, warehouse, address, dest_warehouse,
			dest_address, min_stock_hint, attachments, actor
		) VALUES ($1, $2, clock_timestamp(), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING recorded_at`,
		record.ID, record.OccurredOn, record.ItemCode, record.ItemName, record.Unit,
		record.Kind, record.Direction, record.Quantity, record.Warehouse, record.Address,
		record.DestWarehouse, record.DestAddress, record.MinStockHint, record.Attachments,
		record.Actor,
	).Scan(&record.RecordedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insertar registro del libro: %w", err)
	}
	return nil
}

// Update reemplaza el registro por corrección explícita. El recorded_at
// avanza: la corrección es un evento nuevo en el orden del libro, no una
// mutación del pasado.
func (r *LedgerRepo) Update(record *entity.MovementRecord) error {
	ctx := context.Background()
	err := r.q.QueryRow(ctx, `
		UPDATE movement_records SET
			occurred_on = $2, item_name = $3, unit = $4, quantity = $5,
			warehouse = $6, address = $7, min_stock_hint = $8, attachments = $9,
			recorded_at = clock_timestamp()
		WHERE id = $1
		RETURNING recorded_at`,
		record.ID, record.OccurredOn, record.ItemName, record.Unit, record.Quantity,
		record.Warehouse, record.Address, record.MinStockHint, record.Attachments,
	).Scan(&record.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("actualizar registro del libro: %w", err)
	}
	return nil
}

// Delete elimina el registro por ID.
func (r *LedgerRepo) Delete(id string) error {
	ctx := context.Background()
	tag, err := r.q.Exec(ctx, `DELETE FROM movement_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("eliminar registro del libro: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID devuelve el registro o nil si no existe.
func (r *LedgerRepo) GetByID(id string) (*entity.MovementRecord, error) {
	ctx := context.Background()
	row := r.q.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM movement_records WHERE id = $1`, id)
	record, err := scanMovementRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar registro del libro: %w", err)
	}
	return record, nil
}

// ListAll devuelve el libro completo en orden (recorded_at, id): el orden
// canónico sobre el que se pliega la proyección.
func (r *LedgerRepo) ListAll() ([]entity.MovementRecord, error) {
	ctx := context.Background()
	rows, err := r.q.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM movement_records
		ORDER BY recorded_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listar libro de movimientos: %w", err)
	}
	defer rows.Close()

	var records []entity.MovementRecord
	for rows.Next() {
		record, err := scanMovementRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("leer registro del libro: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recorrer libro de movimientos: %w", err)
	}
	return records, nil
}

func scanMovementRecord(row pgx.Row) (*entity.MovementRecord, error) {
	var r entity.MovementRecord
	err := row.Scan(
		&r.ID, &r.OccurredOn, &r.RecordedAt, &r.ItemCode, &r.ItemName, &r.Unit,
		&r.Kind, &r.Direction, &r.Quantity, &r.Warehouse, &r.Address,
		&r.DestWarehouse, &r.DestAddress, &r.MinStockHint, &r.Attachments, &r.Actor,
	)
	if err != nil {
		return nil, err
	}
	if r.Attachments == nil {
		r.Attachments = []string{}
	}
	return &r, nil
}

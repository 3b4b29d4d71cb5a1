package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// SessionRepo persistencia del agregado sesión de toma de inventario
// (sesión + ítems). Save y Delete abren su propia transacción: el agregado
// se escribe completo o no se escribe.
type SessionRepo struct {
	pool *pgxpool.Pool
}

var _ repository.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepo crea el repositorio de sesiones.
func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// List devuelve todas las sesiones con sus ítems, la más reciente primero.
func (r *SessionRepo) List() ([]*entity.InventorySession, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, responsible, status, created_at, closed_at, locked_by, locked_at
		FROM inventory_sessions
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listar sesiones: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.InventorySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("leer sesión: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recorrer sesiones: %w", err)
	}
	for _, s := range sessions {
		if err := r.loadItems(ctx, s); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// GetByID devuelve la sesión completa o nil si no existe.
func (r *SessionRepo) GetByID(id string) (*entity.InventorySession, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, responsible, status, created_at, closed_at, locked_by, locked_at
		FROM inventory_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar sesión: %w", err)
	}
	if err := r.loadItems(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save persiste el agregado completo: upsert de la sesión y reemplazo de los
// ítems, dentro de una transacción.
func (r *SessionRepo) Save(session *entity.InventorySession) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("iniciar transacción: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO inventory_sessions (id, name, responsible, status, created_at, closed_at, locked_by, locked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			responsible = EXCLUDED.responsible,
			status = EXCLUDED.status,
			closed_at = EXCLUDED.closed_at,
			locked_by = EXCLUDED.locked_by,
			locked_at = EXCLUDED.locked_at`,
		session.ID, session.Name, session.Responsible, session.Status,
		session.CreatedAt, session.ClosedAt, session.LockedBy, session.LockedAt,
	)
	if err != nil {
		return fmt.Errorf("guardar sesión: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_session_items WHERE session_id = $1`, session.ID); err != nil {
		return fmt.Errorf("reemplazar ítems de sesión: %w", err)
	}
	for _, it := range session.Items {
		counted := decimal.NullDecimal{}
		if it.CountedBalance != nil {
			counted = decimal.NullDecimal{Decimal: *it.CountedBalance, Valid: true}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO inventory_session_items (
				id, session_id, item_code, item_name, warehouse, address, unit,
				system_balance, counted_balance, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, session.ID, it.ItemCode, it.ItemName, it.Warehouse, it.Address,
			it.Unit, it.SystemBalance, counted, it.Status,
		)
		if err != nil {
			return fmt.Errorf("guardar ítem de sesión: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("confirmar transacción: %w", err)
	}
	return nil
}

// Delete elimina la sesión y sus ítems.
func (r *SessionRepo) Delete(id string) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("iniciar transacción: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_session_items WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("eliminar ítems de sesión: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM inventory_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("eliminar sesión: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("confirmar transacción: %w", err)
	}
	return nil
}

func (r *SessionRepo) loadItems(ctx context.Context, s *entity.InventorySession) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, item_code, item_name, warehouse, address, unit,
			system_balance, counted_balance, status
		FROM inventory_session_items
		WHERE session_id = $1
		ORDER BY item_code, warehouse, address`, s.ID)
	if err != nil {
		return fmt.Errorf("listar ítems de sesión: %w", err)
	}
	defer rows.Close()

	s.Items = s.Items[:0]
	for rows.Next() {
		var it entity.InventorySessionItem
		var counted decimal.NullDecimal
		err := rows.Scan(
			&it.ID, &it.ItemCode, &it.ItemName, &it.Warehouse, &it.Address,
			&it.Unit, &it.SystemBalance, &counted, &it.Status,
		)
		if err != nil {
			return fmt.Errorf("leer ítem de sesión: %w", err)
		}
		if counted.Valid {
			v := counted.Decimal
			it.CountedBalance = &v
		}
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("recorrer ítems de sesión: %w", err)
	}
	return nil
}

func scanSession(row pgx.Row) (*entity.InventorySession, error) {
	var s entity.InventorySession
	err := row.Scan(
		&s.ID, &s.Name, &s.Responsible, &s.Status,
		&s.CreatedAt, &s.ClosedAt, &s.LockedBy, &s.LockedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

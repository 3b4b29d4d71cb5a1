package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRunner ejecuta un callback con el repositorio del libro atado a una
// transacción. Commit si fn retorna nil; Rollback en caso contrario.
type TxRunner struct {
	pool *pgxpool.Pool
}

var _ ledger.TxRunner = (*TxRunner)(nil)

// NewTxRunner crea el ejecutor transaccional sobre el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run abre la transacción, construye el repositorio sobre ella y delega en fn.
func (t *TxRunner) Run(ctx context.Context, fn func(ledgerRepo repository.LedgerRepository) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("iniciar transacción: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewLedgerRepo(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("confirmar transacción: %w", err)
	}
	return nil
}

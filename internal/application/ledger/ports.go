package ledger

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRunner ejecuta un callback con el repositorio del libro atado a una
// transacción (Commit si fn retorna nil, Rollback si no). Lo usa el traslado
// para escribir la pata OUT y su espejo IN de forma atómica.
type TxRunner interface {
	Run(ctx context.Context, fn func(ledgerRepo repository.LedgerRepository) error) error
}

// ChangeNotifier avisa a otros clientes que el libro cambió para que re-plieguen
// su proyección. Best-effort: la implementación registra fallos, nunca los propaga.
type ChangeNotifier interface {
	NotifyLedgerChanged(ctx context.Context)
}

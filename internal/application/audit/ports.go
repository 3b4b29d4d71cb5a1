package audit

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// LockGrant resultado del endpoint de coordinación de bloqueos.
type LockGrant struct {
	Granted       bool
	CurrentHolder string
	Since         time.Time
}

// LockCoordinator endpoint de coordinación del bloqueo de edición exclusiva
// por sesión. El bloqueo es consultivo: protege a clientes honestos de la
// edición concurrente accidental, sin vencimiento automático.
type LockCoordinator interface {
	// TryLock intenta adquirir el bloqueo. Re-adquirir siendo ya titular
	// concede (idempotente). Si otro lo tiene, Granted=false con el titular
	// y desde cuándo; no es un error.
	TryLock(ctx context.Context, sessionID, holder string) (LockGrant, error)
	// Unlock libera el bloqueo incondicionalmente. Idempotente.
	Unlock(ctx context.Context, sessionID string) error
}

// ReportGenerator genera el reporte imprimible de una sesión finalizada.
type ReportGenerator interface {
	GenerateSessionReport(ctx context.Context, session *entity.InventorySession) ([]byte, error)
}

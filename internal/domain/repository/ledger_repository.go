package repository

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// LedgerRepository define el puerto de persistencia del libro de movimientos
// (append-only, fuente de verdad del stock). El store asigna a cada registro
// un RecordedAt estrictamente creciente; dos clientes que escriben en
// concurrencia convergen en el siguiente fold.
type LedgerRepository interface {
	// Append agrega un registro; asigna RecordedAt y lo devuelve en el entity.
	Append(record *entity.MovementRecord) error
	// Update reemplaza un registro vía corrección explícita: el registro
	// corregido avanza su RecordedAt (nunca mutación in-place del pasado).
	Update(record *entity.MovementRecord) error
	Delete(id string) error
	GetByID(id string) (*entity.MovementRecord, error)
	// ListAll devuelve el libro completo ordenado por (recorded_at, id).
	ListAll() ([]entity.MovementRecord, error)
}

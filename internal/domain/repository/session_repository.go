package repository

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// SessionRepository define el puerto de persistencia de las sesiones de toma
// de inventario (agregado completo: sesión + ítems).
type SessionRepository interface {
	List() ([]*entity.InventorySession, error)
	GetByID(id string) (*entity.InventorySession, error)
	// Save persiste el agregado completo (upsert de sesión y reemplazo de ítems).
	Save(session *entity.InventorySession) error
	Delete(id string) error
}

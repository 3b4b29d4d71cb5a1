// Package audit implementa el gestor de sesiones de toma de inventario:
// ciclo de vida OPEN -> FINALIZED (terminal), bloqueo de edición exclusiva
// por sesión y mutaciones de conteo sobre la foto congelada de saldos.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// DefaultStaleLockAfter antigüedad desde la cual un bloqueo se señala como
// obsoleto (titular probablemente desconectado sin liberar).
const DefaultStaleLockAfter = 30 * time.Minute

// ImportedItem tupla ya parseada de la importación masiva que origina una
// sesión (el parseo de archivos ocurre fuera del core).
type ImportedItem struct {
	ItemCode      string
	ItemName      string
	Warehouse     string
	Address       string
	Unit          string
	SystemBalance decimal.Decimal
}

// LockResult resultado de AcquireLock. Granted=false es contención normal,
// no una condición de error: informa el titular actual y si el bloqueo ya
// está obsoleto (candidato a force-unlock).
type LockResult struct {
	Granted       bool
	CurrentHolder string
	Since         *time.Time
	Stale         bool
}

// Manager gestor de sesiones de toma de inventario.
type Manager struct {
	sessions   repository.SessionRepository
	locks      LockCoordinator
	staleAfter time.Duration
	now        func() time.Time
}

// NewManager construye el gestor. staleAfter <= 0 usa DefaultStaleLockAfter.
func NewManager(sessions repository.SessionRepository, locks LockCoordinator, staleAfter time.Duration) *Manager {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleLockAfter
	}
	return &Manager{sessions: sessions, locks: locks, staleAfter: staleAfter, now: time.Now}
}

// CreateSession crea una sesión OPEN con los saldos del sistema congelados
// por ítem (nunca se recalculan después). Importación vacía es inválida.
func (m *Manager) CreateSession(name, responsible string, imported []ImportedItem) (*entity.InventorySession, error) {
	if len(imported) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if name == "" || responsible == "" {
		return nil, domain.ErrInvalidInput
	}
	session := &entity.InventorySession{
		ID:          uuid.New().String(),
		Name:        name,
		Responsible: responsible,
		Status:      entity.SessionStatusOpen,
		CreatedAt:   m.now(),
		Items:       make([]entity.InventorySessionItem, 0, len(imported)),
	}
	for _, it := range imported {
		if it.ItemCode == "" || it.Warehouse == "" {
			return nil, domain.ErrInvalidInput
		}
		session.Items = append(session.Items, entity.InventorySessionItem{
			ID:            uuid.New().String(),
			ItemCode:      it.ItemCode,
			ItemName:      it.ItemName,
			Warehouse:     it.Warehouse,
			Address:       it.Address,
			Unit:          it.Unit,
			SystemBalance: it.SystemBalance,
			Status:        entity.SessionItemPending,
		})
	}
	if err := m.sessions.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

// AcquireLock intenta el bloqueo de edición exclusiva. Sobre una sesión
// FINALIZED es un no-op exitoso: ver una sesión cerrada es seguro para
// cualquiera. La contención devuelve el titular, no un error.
func (m *Manager) AcquireLock(ctx context.Context, sessionID, holder string) (LockResult, error) {
	if holder == "" {
		return LockResult{}, domain.ErrInvalidInput
	}
	session, err := m.sessions.GetByID(sessionID)
	if err != nil {
		return LockResult{}, err
	}
	if session == nil {
		return LockResult{}, domain.ErrNotFound
	}
	if session.IsFinalized() {
		return LockResult{Granted: true}, nil
	}
	grant, err := m.locks.TryLock(ctx, sessionID, holder)
	if err != nil {
		return LockResult{}, err
	}
	if grant.Granted {
		since := grant.Since
		session.LockedBy = holder
		session.LockedAt = &since
		if err := m.sessions.Save(session); err != nil {
			return LockResult{}, err
		}
		return LockResult{Granted: true, CurrentHolder: holder, Since: &since}, nil
	}
	since := grant.Since
	stale := !since.IsZero() && m.now().Sub(since) > m.staleAfter
	return LockResult{
		Granted:       false,
		CurrentHolder: grant.CurrentHolder,
		Since:         &since,
		Stale:         stale,
	}, nil
}

// ReleaseLock libera el bloqueo incondicionalmente (el usuario navegó fuera).
// Idempotente: liberar una sesión libre no es error.
func (m *Manager) ReleaseLock(ctx context.Context, sessionID string) error {
	if err := m.locks.Unlock(ctx, sessionID); err != nil {
		return err
	}
	session, err := m.sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil || session.LockedBy == "" {
		return nil
	}
	session.LockedBy = ""
	session.LockedAt = nil
	return m.sessions.Save(session)
}

// ForceUnlock acción administrativa contra bloqueos obsoletos (titular
// desconectado sin liberar). Devuelve quién lo tenía.
func (m *Manager) ForceUnlock(ctx context.Context, sessionID string) (string, error) {
	session, err := m.sessions.GetByID(sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", domain.ErrNotFound
	}
	previous := session.LockedBy
	if err := m.ReleaseLock(ctx, sessionID); err != nil {
		return "", err
	}
	return previous, nil
}

// RecordCount fija el conteo físico de un ítem. Valor no nulo marca CHECKED;
// nulo revierte a PENDING. Mutación local a la sesión: se vuelve durable con
// PersistProgress.
func (m *Manager) RecordCount(session *entity.InventorySession, itemID string, counted *decimal.Decimal) error {
	if session.IsFinalized() {
		return domain.ErrSessionFinalized
	}
	item := session.Item(itemID)
	if item == nil {
		return domain.ErrItemNotFound
	}
	if counted != nil && counted.IsNegative() {
		return domain.ErrInvalidInput
	}
	item.CountedBalance = counted
	if counted != nil {
		item.Status = entity.SessionItemChecked
	} else {
		item.Status = entity.SessionItemPending
	}
	return nil
}

// ToggleChecked alterna PENDING/CHECKED sin tocar el conteo.
func (m *Manager) ToggleChecked(session *entity.InventorySession, itemID string) error {
	if session.IsFinalized() {
		return domain.ErrSessionFinalized
	}
	item := session.Item(itemID)
	if item == nil {
		return domain.ErrItemNotFound
	}
	if item.Status == entity.SessionItemChecked {
		item.Status = entity.SessionItemPending
	} else {
		item.Status = entity.SessionItemChecked
	}
	return nil
}

// PersistProgress guarda el avance sin cambiar el estado de la sesión; sigue
// OPEN y bloqueable por otros solo tras un ReleaseLock explícito.
func (m *Manager) PersistProgress(session *entity.InventorySession) error {
	if session.IsFinalized() {
		return domain.ErrSessionFinalized
	}
	return m.sessions.Save(session)
}

// Finalize transición de una sola vía: FINALIZED + ClosedAt, persistida.
// No existe des-finalizar; una segunda llamada es rechazada sin alterar nada.
func (m *Manager) Finalize(session *entity.InventorySession) error {
	if session.IsFinalized() {
		return domain.ErrSessionFinalized
	}
	closed := m.now()
	session.Status = entity.SessionStatusFinalized
	session.ClosedAt = &closed
	session.LockedBy = ""
	session.LockedAt = nil
	return m.sessions.Save(session)
}

// DeleteSession elimina la sesión de forma permanente, sin importar su estado,
// y suelta el bloqueo en el coordinador.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	session, err := m.sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return domain.ErrNotFound
	}
	if err := m.locks.Unlock(ctx, sessionID); err != nil {
		return err
	}
	return m.sessions.Delete(sessionID)
}

// GetSession devuelve la sesión completa por ID.
func (m *Manager) GetSession(sessionID string) (*entity.InventorySession, error) {
	session, err := m.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

// ListSessions lista todas las sesiones.
func (m *Manager) ListSessions() ([]*entity.InventorySession, error) {
	return m.sessions.List()
}

// SetClock reemplaza el reloj (tests).
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

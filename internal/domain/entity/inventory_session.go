package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una sesión de toma de inventario.
const (
	SessionStatusOpen      = "OPEN"
	SessionStatusFinalized = "FINALIZED" // terminal, solo lectura
)

// Estados de un ítem dentro de la sesión.
const (
	SessionItemPending = "PENDING"
	SessionItemChecked = "CHECKED"
)

// InventorySession es una toma de inventario: unidad de trabajo acotada y
// bloqueable sobre una foto congelada de saldos. OPEN -> FINALIZED una sola
// vez, irreversible.
type InventorySession struct {
	ID          string
	Name        string
	Responsible string
	Status      string
	CreatedAt   time.Time
	ClosedAt    *time.Time
	LockedBy    string     // titular del bloqueo de edición exclusiva; vacío = libre
	LockedAt    *time.Time // desde cuándo; permite señalar bloqueos obsoletos
	Items       []InventorySessionItem
}

// InventorySessionItem posición a contar dentro de la sesión.
// SystemBalance queda congelado al crear la sesión y nunca se recalcula.
type InventorySessionItem struct {
	ID             string
	ItemCode       string
	ItemName       string
	Warehouse      string
	Address        string
	Unit           string
	SystemBalance  decimal.Decimal
	CountedBalance *decimal.Decimal
	Status         string // PENDING | CHECKED
}

// IsFinalized indica si la sesión llegó a su estado terminal.
func (s *InventorySession) IsFinalized() bool {
	return s.Status == SessionStatusFinalized
}

// Item devuelve el ítem con el ID dado, o nil si no existe.
func (s *InventorySession) Item(itemID string) *InventorySessionItem {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// IsDivergent compara el conteo físico contra la foto congelada del saldo.
// Deliberadamente nunca contra la proyección viva: los movimientos de bodega
// durante una toma larga no deben invalidar conteos en curso.
func (i *InventorySessionItem) IsDivergent() bool {
	return i.CountedBalance != nil && !i.CountedBalance.Equal(i.SystemBalance)
}

// DivergentItems devuelve los ítems contados cuyo conteo difiere del saldo congelado.
func (s *InventorySession) DivergentItems() []InventorySessionItem {
	var out []InventorySessionItem
	for _, it := range s.Items {
		if it.IsDivergent() {
			out = append(out, it)
		}
	}
	return out
}

// Progress devuelve cuántos ítems están contados (CHECKED) y el total.
func (s *InventorySession) Progress() (checked, total int) {
	for _, it := range s.Items {
		if it.Status == SessionItemChecked {
			checked++
		}
	}
	return checked, len(s.Items)
}

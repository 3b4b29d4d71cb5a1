package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportedItemDTO tupla ya parseada para crear una sesión de toma de
// inventario (el parseo de archivos es responsabilidad del cliente).
type ImportedItemDTO struct {
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	Warehouse     string          `json:"warehouse"`
	Address       string          `json:"address"`
	Unit          string          `json:"unit"`
	SystemBalance decimal.Decimal `json:"system_balance"`
}

// CreateSessionRequest body para POST /api/audit/sessions. Si FromStock es
// true los ítems se toman de la proyección activa actual y Items se ignora.
type CreateSessionRequest struct {
	Name      string            `json:"name"`
	FromStock bool              `json:"from_stock,omitempty"`
	Items     []ImportedItemDTO `json:"items,omitempty"`
}

// SessionItemCountRequest body para PUT .../items/:itemId/count.
// counted_balance null revierte el ítem a PENDING.
type SessionItemCountRequest struct {
	CountedBalance *decimal.Decimal `json:"counted_balance"`
}

// LockResponse resultado de adquirir el bloqueo de edición exclusiva.
// Granted=false no es un error: es contención normal e informa el titular.
type LockResponse struct {
	Granted       bool       `json:"granted"`
	CurrentHolder string     `json:"current_holder,omitempty"`
	Since         *time.Time `json:"since,omitempty"`
	Stale         bool       `json:"stale,omitempty"` // bloqueo obsoleto: candidato a force-unlock
}

// SessionItemResponse ítem de sesión en respuestas HTTP.
type SessionItemResponse struct {
	ID             string           `json:"id"`
	ItemCode       string           `json:"item_code"`
	ItemName       string           `json:"item_name"`
	Warehouse      string           `json:"warehouse"`
	Address        string           `json:"address"`
	Unit           string           `json:"unit"`
	SystemBalance  decimal.Decimal  `json:"system_balance"`
	CountedBalance *decimal.Decimal `json:"counted_balance,omitempty"`
	Status         string           `json:"status"`
	IsDivergent    bool             `json:"is_divergent"`
}

// SessionResponse sesión de toma de inventario en respuestas HTTP.
type SessionResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Responsible  string                `json:"responsible"`
	Status       string                `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	ClosedAt     *time.Time            `json:"closed_at,omitempty"`
	LockedBy     string                `json:"locked_by,omitempty"`
	LockedAt     *time.Time            `json:"locked_at,omitempty"`
	ItemsChecked int                   `json:"items_checked"`
	ItemsTotal   int                   `json:"items_total"`
	Items        []SessionItemResponse `json:"items,omitempty"`
}

// SessionListResponse listado de sesiones (sin ítems).
type SessionListResponse struct {
	Items []SessionResponse `json:"items"`
	Total int               `json:"total"`
}

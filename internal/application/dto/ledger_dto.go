package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/ledger/movements.
// Para traslados: direction=OUT + dest_warehouse (el caso de uso genera la
// pata IN espejo en el destino dentro de la misma transacción).
type RegisterMovementRequest struct {
	ItemCode      string           `json:"item_code"`
	ItemName      string           `json:"item_name"`
	Unit          string           `json:"unit"`
	Direction     string           `json:"direction"` // IN | OUT
	Quantity      decimal.Decimal  `json:"quantity"`
	OccurredOn    string           `json:"occurred_on"` // YYYY-MM-DD
	Warehouse     string           `json:"warehouse"`
	Address       string           `json:"address"`
	DestWarehouse string           `json:"dest_warehouse,omitempty"`
	DestAddress   string           `json:"dest_address,omitempty"`
	MinStockHint  *decimal.Decimal `json:"min_stock_hint,omitempty"`
	Attachments   []string         `json:"attachments,omitempty"`
}

// RegisterCountRequest body para POST /api/ledger/counts (conteo físico).
type RegisterCountRequest struct {
	ItemCode   string          `json:"item_code"`
	ItemName   string          `json:"item_name"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	OccurredOn string          `json:"occurred_on"` // YYYY-MM-DD
	Warehouse  string          `json:"warehouse"`
	Address    string          `json:"address"`
}

// AttachMetadataRequest body para POST /api/ledger/metadata: registro de
// solo-metadata (cantidad cero, actor centinela) que adjunta fotos y/o
// actualiza el stock mínimo sin afectar el saldo.
type AttachMetadataRequest struct {
	ItemCode     string           `json:"item_code"`
	Warehouse    string           `json:"warehouse"`
	Address      string           `json:"address"`
	MinStockHint *decimal.Decimal `json:"min_stock_hint,omitempty"`
	Attachments  []string         `json:"attachments,omitempty"`
}

// CorrectRecordRequest body para PUT /api/ledger/records/:id. Solo campos
// presentes; la corrección reemplaza el registro con RecordedAt posterior.
type CorrectRecordRequest struct {
	ItemName     *string          `json:"item_name,omitempty"`
	Unit         *string          `json:"unit,omitempty"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	OccurredOn   *string          `json:"occurred_on,omitempty"` // YYYY-MM-DD
	Address      *string          `json:"address,omitempty"`
	MinStockHint *decimal.Decimal `json:"min_stock_hint,omitempty"`
}

// MovementRecordResponse representación HTTP de un registro del libro.
type MovementRecordResponse struct {
	ID            string          `json:"id"`
	OccurredOn    string          `json:"occurred_on"`
	RecordedAt    time.Time       `json:"recorded_at"`
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	Unit          string          `json:"unit"`
	Kind          string          `json:"kind"`
	Direction     string          `json:"direction,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Warehouse     string          `json:"warehouse"`
	Address       string          `json:"address"`
	DestWarehouse string          `json:"dest_warehouse,omitempty"`
	DestAddress   string          `json:"dest_address,omitempty"`
	MinStockHint  decimal.Decimal `json:"min_stock_hint"`
	Attachments   []string        `json:"attachments,omitempty"`
	Actor         string          `json:"actor"`
}

// LedgerListResponse listado paginado del libro.
type LedgerListResponse struct {
	Items []MovementRecordResponse `json:"items"`
	Page  PageResponse             `json:"page"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockSnapshotResponse foto proyectada de una posición de stock.
type StockSnapshotResponse struct {
	ItemCode       string           `json:"item_code"`
	Warehouse      string           `json:"warehouse"`
	Address        string           `json:"address"`
	ItemName       string           `json:"item_name"`
	Unit           string           `json:"unit"`
	Balance        decimal.Decimal  `json:"balance"`
	MinStock       decimal.Decimal  `json:"min_stock"`
	LastEntryOn    *time.Time       `json:"last_entry_on,omitempty"`
	LastExitOn     *time.Time       `json:"last_exit_on,omitempty"`
	LastCountedOn  *time.Time       `json:"last_counted_on,omitempty"`
	LastCountedQty *decimal.Decimal `json:"last_counted_qty,omitempty"`
	Attachments    []string         `json:"attachments,omitempty"`
	IsCritical     bool             `json:"is_critical"`
	IsDivergent    bool             `json:"is_divergent"`
}

// SkippedRecordDTO diagnóstico de un registro del libro omitido por el fold.
type SkippedRecordDTO struct {
	RecordID string `json:"record_id"`
	ItemCode string `json:"item_code,omitempty"`
	Reason   string `json:"reason"`
}

// StockListResponse respuesta de GET /api/stock.
type StockListResponse struct {
	Items   []StockSnapshotResponse `json:"items"`
	Total   int                     `json:"total"`
	Skipped []SkippedRecordDTO      `json:"skipped,omitempty"`
}

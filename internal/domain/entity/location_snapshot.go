package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocationKey identifica una posición de stock: ítem + bodega + dirección
// normalizada (trim + mayúsculas + sin tildes).
type LocationKey struct {
	ItemCode  string
	Warehouse string
	Address   string
}

// LocationStockSnapshot es la vista derivada de una posición de stock.
// No se persiste: se recalcula plegando el libro de movimientos.
type LocationStockSnapshot struct {
	Key            LocationKey
	ItemName       string
	Unit           string
	Balance        decimal.Decimal
	MinStock       decimal.Decimal // hint del registro más reciente en la posición
	LastEntryOn    *time.Time
	LastExitOn     *time.Time
	LastCountedOn  *time.Time
	LastCountedQty *decimal.Decimal
	Attachments    []string
	IsCritical     bool // saldo global del ítem <= stock mínimo global (> 0)
	IsDivergent    bool // último conteo != saldo calculado al instante del conteo
}

// ItemAggregate agregado por ítem sobre todas sus posiciones (segunda fase
// del fold): saldo global y stock mínimo global.
type ItemAggregate struct {
	ItemCode string
	Balance  decimal.Decimal // suma de saldos de todas las posiciones
	MinStock decimal.Decimal // máximo de los mínimos declarados por posición
}

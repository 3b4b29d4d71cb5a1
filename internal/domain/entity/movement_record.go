package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de registro del libro de movimientos.
const (
	RecordKindMovement = "MOVEMENT" // entrada o salida física
	RecordKindCount    = "COUNT"    // conteo físico (toma de inventario)
)

// Dirección de un movimiento (solo aplica cuando Kind = MOVEMENT).
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// DefaultSentinelActor actor reservado para registros de solo-metadata
// (cantidad cero: fotos y/o actualización de stock mínimo, sin afectar saldo).
const DefaultSentinelActor = "sistema"

// RecordClass variante explícita de un registro del libro, derivada de sus
// campos. Se clasifica una sola vez para que el fold de la proyección no
// tenga que repetir la heurística cantidad==0 + actor centinela.
type RecordClass int

const (
	ClassMovement RecordClass = iota
	ClassCount
	ClassMetadataPatch
	ClassUnknown
)

// MovementRecord es una entrada del libro de movimientos (append-only).
// Inmutable una vez registrada salvo corrección explícita que la reemplaza
// con un RecordedAt posterior.
type MovementRecord struct {
	ID            string
	OccurredOn    time.Time // fecha calendario ingresada por el usuario
	RecordedAt    time.Time // timestamp de creación asignado por el store (orden total)
	ItemCode      string
	ItemName      string
	Unit          string
	Kind          string // MOVEMENT | COUNT
	Direction     string // IN | OUT (solo MOVEMENT)
	Quantity      decimal.Decimal
	Warehouse     string
	Address       string // texto libre; se normaliza para agrupar
	DestWarehouse string // solo traslados (OUT con destino)
	DestAddress   string
	MinStockHint  decimal.Decimal // stock mínimo declarado al momento del registro
	Attachments   []string        // referencias opacas a fotos
	Actor         string
}

// Class clasifica el registro en su variante explícita. El actor centinela
// marca los registros de solo-metadata (cantidad cero que no toca el saldo).
func (r *MovementRecord) Class(sentinelActor string) RecordClass {
	switch r.Kind {
	case RecordKindCount:
		return ClassCount
	case RecordKindMovement:
		if r.Quantity.IsZero() && r.Actor == sentinelActor {
			return ClassMetadataPatch
		}
		return ClassMovement
	}
	return ClassUnknown
}

// IsTransfer indica si el registro es la pata de salida de un traslado
// (OUT con bodega destino). El writer genera la pata IN espejo.
func (r *MovementRecord) IsTransfer() bool {
	return r.Kind == RecordKindMovement && r.Direction == DirectionOut && r.DestWarehouse != ""
}

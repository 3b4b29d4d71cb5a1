// Package projection implementa el motor de proyección de saldos: una función
// pura que pliega el libro de movimientos (append-only) en fotos de stock por
// posición, con banderas de criticidad y divergencia por ítem.
//
// El fold es determinista e idempotente: sobre un libro sin cambios produce
// siempre el mismo resultado, byte a byte. No hace I/O; opera sobre registros
// ya traídos del store.
package projection

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// DefaultMaxAttachments tope de fotos retenidas por posición.
const DefaultMaxAttachments = 6

// Options parametriza el fold.
type Options struct {
	// AccountedWarehouses bodegas que participan en la contabilidad de saldos.
	// Vacío = todas. Las posiciones fuera del conjunto se excluyen del fold
	// (bodegas lógicamente externas a la instalación).
	AccountedWarehouses []string
	// SentinelActor actor reservado de los registros de solo-metadata.
	SentinelActor string
	// MaxAttachments tope de fotos acumuladas por posición (0 = DefaultMaxAttachments).
	MaxAttachments int
}

// SkippedRecord diagnóstico no fatal: un registro malformado que quedó fuera
// del fold. Nunca se convierte en error.
type SkippedRecord struct {
	RecordID string
	ItemCode string
	Reason   string
}

// Result resultado completo del fold: fotos por posición, agregados por ítem
// y diagnósticos de registros omitidos.
type Result struct {
	Snapshots []entity.LocationStockSnapshot
	Totals    map[string]entity.ItemAggregate
	Skipped   []SkippedRecord
}

// Active devuelve solo las posiciones con saldo positivo (vista de stock
// activo). Las posiciones con saldo <= 0 permanecen en Snapshots por historia.
func (r Result) Active() []entity.LocationStockSnapshot {
	var out []entity.LocationStockSnapshot
	for _, s := range r.Snapshots {
		if s.Balance.IsPositive() {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot busca la foto de una posición por llave. Nil si no existe.
func (r Result) Snapshot(key entity.LocationKey) *entity.LocationStockSnapshot {
	for i := range r.Snapshots {
		if r.Snapshots[i].Key == key {
			return &r.Snapshots[i]
		}
	}
	return nil
}

// estado interno de una posición durante el fold.
type groupState struct {
	snap entity.LocationStockSnapshot
}

// Project pliega el libro completo en fotos de stock. Dos fases:
//
//  1. agrupa por (ítem, bodega, dirección normalizada) y procesa cada registro
//     en orden (RecordedAt, ID): movimientos ajustan el saldo, parches de
//     metadata solo actualizan hints y fotos, conteos fijan la divergencia
//     contra el saldo calculado al instante del conteo;
//  2. agrega por ítem (saldo global = suma, mínimo global = máximo) y
//     retro-anota IsCritical en cada posición del ítem.
//
// Los registros malformados se reportan en Result.Skipped, nunca como error.
func Project(records []entity.MovementRecord, opts Options) Result {
	sentinel := opts.SentinelActor
	if sentinel == "" {
		sentinel = entity.DefaultSentinelActor
	}
	maxAttach := opts.MaxAttachments
	if maxAttach <= 0 {
		maxAttach = DefaultMaxAttachments
	}
	var accounted map[string]struct{}
	if len(opts.AccountedWarehouses) > 0 {
		accounted = make(map[string]struct{}, len(opts.AccountedWarehouses))
		for _, w := range opts.AccountedWarehouses {
			accounted[w] = struct{}{}
		}
	}

	// Orden total y determinista: RecordedAt asc; colisiones exactas de
	// timestamp se desempatan por ID (estable entre ejecuciones).
	ordered := make([]entity.MovementRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].RecordedAt.Equal(ordered[j].RecordedAt) {
			return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	result := Result{Totals: make(map[string]entity.ItemAggregate)}
	groups := make(map[entity.LocationKey]*groupState)

	for _, rec := range ordered {
		if reason := validate(&rec, sentinel); reason != "" {
			result.Skipped = append(result.Skipped, SkippedRecord{
				RecordID: rec.ID, ItemCode: rec.ItemCode, Reason: reason,
			})
			continue
		}
		if accounted != nil {
			if _, ok := accounted[rec.Warehouse]; !ok {
				// Bodega no contabilizada: exclusión intencional, no diagnóstico.
				continue
			}
		}

		key := entity.LocationKey{
			ItemCode:  rec.ItemCode,
			Warehouse: rec.Warehouse,
			Address:   NormalizeAddress(rec.Address),
		}
		g, ok := groups[key]
		if !ok {
			g = &groupState{snap: entity.LocationStockSnapshot{
				Key:     key,
				Balance: decimal.Zero,
			}}
			groups[key] = g
		}

		// Todo registro de la posición refresca la metadata "más reciente".
		g.snap.MinStock = rec.MinStockHint
		if rec.ItemName != "" {
			g.snap.ItemName = rec.ItemName
		}
		if rec.Unit != "" {
			g.snap.Unit = rec.Unit
		}

		switch rec.Class(sentinel) {
		case entity.ClassMovement:
			occurred := rec.OccurredOn
			if rec.Direction == entity.DirectionIn {
				g.snap.Balance = g.snap.Balance.Add(rec.Quantity)
				g.snap.LastEntryOn = &occurred
			} else {
				g.snap.Balance = g.snap.Balance.Sub(rec.Quantity)
				g.snap.LastExitOn = &occurred
			}
		case entity.ClassMetadataPatch:
			g.snap.Attachments = mergeAttachments(g.snap.Attachments, rec.Attachments, maxAttach)
		case entity.ClassCount:
			// Saldo al instante del conteo = fold de los movimientos de la
			// posición ya procesados (RecordedAt <= el del conteo). Los
			// movimientos posteriores no crean ni resuelven divergencias.
			occurred := rec.OccurredOn
			counted := rec.Quantity
			g.snap.LastCountedOn = &occurred
			g.snap.LastCountedQty = &counted
			g.snap.IsDivergent = !counted.Equal(g.snap.Balance)
		}
	}

	// Segunda fase: agregados por ítem y retro-anotación de IsCritical.
	for key, g := range groups {
		agg := result.Totals[key.ItemCode]
		agg.ItemCode = key.ItemCode
		agg.Balance = agg.Balance.Add(g.snap.Balance)
		if g.snap.MinStock.GreaterThan(agg.MinStock) {
			agg.MinStock = g.snap.MinStock
		}
		result.Totals[key.ItemCode] = agg
	}
	for _, g := range groups {
		agg := result.Totals[g.snap.Key.ItemCode]
		g.snap.IsCritical = agg.MinStock.IsPositive() && agg.Balance.LessThanOrEqual(agg.MinStock)
	}

	result.Snapshots = make([]entity.LocationStockSnapshot, 0, len(groups))
	for _, g := range groups {
		result.Snapshots = append(result.Snapshots, g.snap)
	}
	sort.Slice(result.Snapshots, func(i, j int) bool {
		a, b := result.Snapshots[i].Key, result.Snapshots[j].Key
		if a.ItemCode != b.ItemCode {
			return a.ItemCode < b.ItemCode
		}
		if a.Warehouse != b.Warehouse {
			return a.Warehouse < b.Warehouse
		}
		return a.Address < b.Address
	})
	return result
}

// validate devuelve la razón de omisión de un registro malformado, o "" si es válido.
func validate(r *entity.MovementRecord, sentinel string) string {
	if r.ID == "" {
		return "registro sin id"
	}
	if r.RecordedAt.IsZero() {
		return "registro sin recordedAt"
	}
	if r.ItemCode == "" {
		return "registro sin código de ítem"
	}
	if r.Warehouse == "" {
		return "registro sin bodega"
	}
	if r.Quantity.IsNegative() {
		return "cantidad negativa"
	}
	switch r.Class(sentinel) {
	case entity.ClassMovement:
		if r.Direction != entity.DirectionIn && r.Direction != entity.DirectionOut {
			return "dirección de movimiento inválida"
		}
	case entity.ClassUnknown:
		return "tipo de registro desconocido"
	}
	return ""
}

// mergeAttachments acumula referencias de fotos sin duplicar, reteniendo las
// más recientes cuando se supera el tope.
func mergeAttachments(current, incoming []string, max int) []string {
	merged := current
	for _, a := range incoming {
		if a == "" || contains(merged, a) {
			continue
		}
		merged = append(merged, a)
	}
	if len(merged) > max {
		merged = merged[len(merged)-max:]
	}
	return merged
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

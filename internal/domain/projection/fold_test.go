package projection_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/projection"
)

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// movement construye un registro MOVEMENT válido en la bodega W01 / dirección A1.
func movement(id string, minute int, direction string, qty int64) entity.MovementRecord {
	return entity.MovementRecord{
		ID:         id,
		OccurredOn: baseTime,
		RecordedAt: baseTime.Add(time.Duration(minute) * time.Minute),
		ItemCode:   "SKU1",
		ItemName:   "Tornillo 3/8",
		Unit:       "und",
		Kind:       entity.RecordKindMovement,
		Direction:  direction,
		Quantity:   decimal.NewFromInt(qty),
		Warehouse:  "W01",
		Address:    "A1",
		Actor:      "carlos",
	}
}

// count construye un registro COUNT (conteo físico) en la misma posición.
func count(id string, minute int, qty int64) entity.MovementRecord {
	r := movement(id, minute, "", qty)
	r.Kind = entity.RecordKindCount
	r.Direction = ""
	return r
}

// TestProject_EscenarioDivergenciaCongelada reproduce el escenario de
// referencia: IN 10, OUT 3, COUNT 8, IN 5. El saldo actual es 12, pero el
// saldo al instante del conteo era 7; contado 8 != 7 => divergente, y la
// entrada posterior no resuelve la divergencia.
func TestProject_EscenarioDivergenciaCongelada(t *testing.T) {
	ledger := []entity.MovementRecord{
		movement("r1", 1, entity.DirectionIn, 10),
		movement("r2", 2, entity.DirectionOut, 3),
		count("r3", 3, 8),
		movement("r4", 4, entity.DirectionIn, 5),
	}

	result := projection.Project(ledger, projection.Options{})
	require.Len(t, result.Snapshots, 1)

	snap := result.Snapshots[0]
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(12)), "saldo actual = 10 - 3 + 5 = 12")
	assert.True(t, snap.IsDivergent, "contado 8 != saldo al conteo 7 => divergente")
	require.NotNil(t, snap.LastCountedQty)
	assert.True(t, snap.LastCountedQty.Equal(decimal.NewFromInt(8)))
}

// TestProject_ConteoCoincidenteNoDivergente: si el conteo coincide con el
// saldo al instante del conteo, no hay divergencia aunque después haya salidas.
func TestProject_ConteoCoincidenteNoDivergente(t *testing.T) {
	ledger := []entity.MovementRecord{
		movement("r1", 1, entity.DirectionIn, 10),
		count("r2", 2, 10),
		movement("r3", 3, entity.DirectionOut, 4),
	}

	result := projection.Project(ledger, projection.Options{})
	require.Len(t, result.Snapshots, 1)
	assert.False(t, result.Snapshots[0].IsDivergent,
		"la salida posterior al conteo no debe crear divergencia retroactiva")
	assert.True(t, result.Snapshots[0].Balance.Equal(decimal.NewFromInt(6)))
}

// TestProject_UltimoConteoGana: con varios conteos en la posición, el oficial
// es el más reciente por RecordedAt.
func TestProject_UltimoConteoGana(t *testing.T) {
	ledger := []entity.MovementRecord{
		movement("r1", 1, entity.DirectionIn, 10),
		count("r2", 2, 9),  // divergente (9 != 10)
		count("r3", 5, 10), // coincide: este manda
	}

	result := projection.Project(ledger, projection.Options{})
	require.Len(t, result.Snapshots, 1)
	snap := result.Snapshots[0]
	assert.False(t, snap.IsDivergent, "solo el conteo más reciente define la divergencia")
	require.NotNil(t, snap.LastCountedQty)
	assert.True(t, snap.LastCountedQty.Equal(decimal.NewFromInt(10)))
}

// TestProject_Idempotente: plegar dos veces el mismo libro (incluso con el
// slice de entrada desordenado) produce resultados idénticos.
func TestProject_Idempotente(t *testing.T) {
	ledger := []entity.MovementRecord{
		movement("r4", 4, entity.DirectionIn, 5),
		count("r3", 3, 8),
		movement("r1", 1, entity.DirectionIn, 10),
		movement("r2", 2, entity.DirectionOut, 3),
	}

	first := projection.Project(ledger, projection.Options{})
	second := projection.Project(ledger, projection.Options{})

	assert.Equal(t, first, second, "el fold es una función pura: mismo libro, mismo resultado")
}

// TestProject_DesempatePorID: dos registros con el mismo RecordedAt exacto se
// ordenan por ID, sin importar el orden de llegada del slice.
func TestProject_DesempatePorID(t *testing.T) {
	in := movement("a-primero", 1, entity.DirectionIn, 10)
	cnt := count("b-segundo", 1, 10) // mismo instante exacto

	r1 := projection.Project([]entity.MovementRecord{in, cnt}, projection.Options{})
	r2 := projection.Project([]entity.MovementRecord{cnt, in}, projection.Options{})

	assert.Equal(t, r1, r2)
	require.Len(t, r1.Snapshots, 1)
	assert.False(t, r1.Snapshots[0].IsDivergent,
		"el IN con id menor se procesa antes del conteo: contado 10 == saldo 10")
}

// TestProject_BanderaCritica: ítem con L1(saldo 5), L2(saldo -2) y mínimo 3
// declarado en L1. Saldo global = 3 <= mínimo global 3 => crítico en ambas
// posiciones del ítem.
func TestProject_BanderaCritica(t *testing.T) {
	l1in := movement("r1", 1, entity.DirectionIn, 5)
	l1in.MinStockHint = decimal.NewFromInt(3)

	l2out := movement("r2", 2, entity.DirectionOut, 2)
	l2out.Address = "A2"

	result := projection.Project([]entity.MovementRecord{l1in, l2out}, projection.Options{})
	require.Len(t, result.Snapshots, 2)

	agg, ok := result.Totals["SKU1"]
	require.True(t, ok)
	assert.True(t, agg.Balance.Equal(decimal.NewFromInt(3)), "saldo global = 5 + (-2) = 3")
	assert.True(t, agg.MinStock.Equal(decimal.NewFromInt(3)), "mínimo global = max por posición")

	for _, snap := range result.Snapshots {
		assert.True(t, snap.IsCritical, "la bandera crítica se anota en todas las posiciones del ítem: %v", snap.Key)
	}
}

// TestProject_SinMinimoNoCritico: mínimo global 0 nunca marca crítico, aunque
// el saldo sea cero o negativo.
func TestProject_SinMinimoNoCritico(t *testing.T) {
	result := projection.Project([]entity.MovementRecord{
		movement("r1", 1, entity.DirectionOut, 4),
	}, projection.Options{})

	require.Len(t, result.Snapshots, 1)
	assert.False(t, result.Snapshots[0].IsCritical)
}

// TestProject_Conservacion: el saldo global de un ítem siempre es la suma de
// los saldos de sus posiciones.
func TestProject_Conservacion(t *testing.T) {
	w2 := movement("r3", 3, entity.DirectionIn, 7)
	w2.Warehouse = "W02"

	result := projection.Project([]entity.MovementRecord{
		movement("r1", 1, entity.DirectionIn, 10),
		movement("r2", 2, entity.DirectionOut, 3),
		w2,
	}, projection.Options{})

	sum := decimal.Zero
	for _, s := range result.Snapshots {
		sum = sum.Add(s.Balance)
	}
	assert.True(t, result.Totals["SKU1"].Balance.Equal(sum))
	assert.True(t, sum.Equal(decimal.NewFromInt(14)))
}

// TestProject_ParcheMetadataNoTocaSaldo: un registro cantidad cero con actor
// centinela actualiza mínimo y fotos pero jamás el saldo.
func TestProject_ParcheMetadataNoTocaSaldo(t *testing.T) {
	patch := movement("r2", 2, entity.DirectionIn, 0)
	patch.Actor = entity.DefaultSentinelActor
	patch.MinStockHint = decimal.NewFromInt(5)
	patch.Attachments = []string{"foto-1.jpg", "foto-2.jpg"}

	result := projection.Project([]entity.MovementRecord{
		movement("r1", 1, entity.DirectionIn, 10),
		patch,
	}, projection.Options{})

	require.Len(t, result.Snapshots, 1)
	snap := result.Snapshots[0]
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(10)), "el parche no afecta el saldo")
	assert.True(t, snap.MinStock.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, []string{"foto-1.jpg", "foto-2.jpg"}, snap.Attachments)
}

// TestProject_FotosConTope: al superar el máximo se retienen las más recientes.
func TestProject_FotosConTope(t *testing.T) {
	p1 := movement("r1", 1, entity.DirectionIn, 0)
	p1.Actor = entity.DefaultSentinelActor
	p1.Attachments = []string{"a.jpg", "b.jpg"}

	p2 := movement("r2", 2, entity.DirectionIn, 0)
	p2.Actor = entity.DefaultSentinelActor
	p2.Attachments = []string{"c.jpg", "d.jpg"}

	result := projection.Project([]entity.MovementRecord{p1, p2},
		projection.Options{MaxAttachments: 3})

	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, []string{"b.jpg", "c.jpg", "d.jpg"}, result.Snapshots[0].Attachments)
}

// TestProject_MinimoDelRegistroMasReciente: el mínimo de la posición es el
// hint del último registro, aunque baje.
func TestProject_MinimoDelRegistroMasReciente(t *testing.T) {
	first := movement("r1", 1, entity.DirectionIn, 10)
	first.MinStockHint = decimal.NewFromInt(8)
	second := movement("r2", 2, entity.DirectionIn, 1)
	second.MinStockHint = decimal.NewFromInt(2)

	result := projection.Project([]entity.MovementRecord{first, second}, projection.Options{})
	require.Len(t, result.Snapshots, 1)
	assert.True(t, result.Snapshots[0].MinStock.Equal(decimal.NewFromInt(2)))
}

// TestProject_BodegasNoContabilizadas: los registros de bodegas fuera del
// conjunto contabilizado no participan del fold ni generan diagnóstico.
func TestProject_BodegasNoContabilizadas(t *testing.T) {
	externa := movement("r2", 2, entity.DirectionIn, 99)
	externa.Warehouse = "EXT"

	result := projection.Project(
		[]entity.MovementRecord{movement("r1", 1, entity.DirectionIn, 10), externa},
		projection.Options{AccountedWarehouses: []string{"W01"}},
	)

	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, "W01", result.Snapshots[0].Key.Warehouse)
	assert.Empty(t, result.Skipped, "la exclusión por bodega es intencional, no un registro omitido")
}

// TestProject_RegistrosMalformadosSeOmiten: el fold nunca falla por un
// registro inválido; lo reporta como diagnóstico y sigue.
func TestProject_RegistrosMalformadosSeOmiten(t *testing.T) {
	sinItem := movement("r2", 2, entity.DirectionIn, 5)
	sinItem.ItemCode = ""

	negativo := movement("r3", 3, entity.DirectionIn, 5)
	negativo.Quantity = decimal.NewFromInt(-5)

	sinDireccion := movement("r4", 4, "", 5)

	result := projection.Project([]entity.MovementRecord{
		movement("r1", 1, entity.DirectionIn, 10),
		sinItem, negativo, sinDireccion,
	}, projection.Options{})

	require.Len(t, result.Snapshots, 1)
	assert.True(t, result.Snapshots[0].Balance.Equal(decimal.NewFromInt(10)),
		"los registros malformados no afectan el saldo")
	require.Len(t, result.Skipped, 3)
	ids := []string{result.Skipped[0].RecordID, result.Skipped[1].RecordID, result.Skipped[2].RecordID}
	assert.ElementsMatch(t, []string{"r2", "r3", "r4"}, ids)
}

// TestProject_DireccionesNormalizadasAgrupan: direcciones equivalentes tras
// normalizar (espacios, tildes, mayúsculas) caen en la misma posición.
func TestProject_DireccionesNormalizadasAgrupan(t *testing.T) {
	a := movement("r1", 1, entity.DirectionIn, 4)
	a.Address = "  pasíllo  3 "
	b := movement("r2", 2, entity.DirectionIn, 6)
	b.Address = "PASILLO 3"

	result := projection.Project([]entity.MovementRecord{a, b}, projection.Options{})
	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, "PASILLO 3", result.Snapshots[0].Key.Address)
	assert.True(t, result.Snapshots[0].Balance.Equal(decimal.NewFromInt(10)))
}

// TestResult_Active: las posiciones con saldo <= 0 quedan fuera de la vista
// activa pero permanecen en Snapshots.
func TestResult_Active(t *testing.T) {
	agotado := movement("r2", 2, entity.DirectionOut, 3)
	agotado.ItemCode = "SKU2"

	result := projection.Project([]entity.MovementRecord{
		movement("r1", 1, entity.DirectionIn, 10),
		agotado,
	}, projection.Options{})

	assert.Len(t, result.Snapshots, 2)
	active := result.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "SKU1", active[0].Key.ItemCode)
}

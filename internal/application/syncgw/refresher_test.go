package syncgw_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/syncgw"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/projection"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func ledgerWith(qty int64) []entity.MovementRecord {
	return []entity.MovementRecord{{
		ID:         "r1",
		OccurredOn: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		RecordedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		ItemCode:   "SKU1",
		Kind:       entity.RecordKindMovement,
		Direction:  entity.DirectionIn,
		Quantity:   decimal.NewFromInt(qty),
		Warehouse:  "W01",
		Address:    "A1",
		Actor:      "carlos",
	}}
}

// gateGateway deja cada PullLatest bloqueado hasta que el test lo libere,
// para orquestar pulls concurrentes de forma determinista.
type gateGateway struct {
	calls    chan chan []entity.MovementRecord
	changeFn func()
	logoutFn func()
}

func newGateGateway() *gateGateway {
	return &gateGateway{calls: make(chan chan []entity.MovementRecord, 4)}
}

func (g *gateGateway) PullLatest(_ context.Context) ([]entity.MovementRecord, error) {
	gate := make(chan []entity.MovementRecord)
	g.calls <- gate
	return <-gate, nil
}

func (g *gateGateway) OnRemoteChange(fn func()) { g.changeFn = fn }
func (g *gateGateway) OnRemoteLogout(fn func()) { g.logoutFn = fn }

// TestRefresher_DescartaPullObsoleto: un pull lento superado por otro más
// nuevo no debe aplicarse como proyección vigente (último disparo gana).
func TestRefresher_DescartaPullObsoleto(t *testing.T) {
	gw := newGateGateway()
	r := syncgw.NewRefresher(gw, projection.Options{}, testLogger())
	ctx := context.Background()

	oldDone := make(chan *projection.Result, 1)
	go func() {
		res, err := r.Refresh(ctx)
		require.NoError(t, err)
		oldDone <- res
	}()
	oldGate := <-gw.calls // el pull viejo quedó en vuelo

	newDone := make(chan *projection.Result, 1)
	go func() {
		res, err := r.Refresh(ctx)
		require.NoError(t, err)
		newDone <- res
	}()
	newGate := <-gw.calls

	// El pull nuevo termina primero con saldo 20.
	newGate <- ledgerWith(20)
	<-newDone

	// El pull viejo termina después con saldo 10: debe descartarse.
	oldGate <- ledgerWith(10)
	<-oldDone

	latest, err := r.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, latest.Snapshots, 1)
	assert.True(t, latest.Snapshots[0].Balance.Equal(decimal.NewFromInt(20)),
		"la proyección vigente debe ser la del pull más nuevo, no la del obsoleto")
}

// TestRefresher_LatestPliegaBajoDemanda: sin cache, Latest hace el pull y el
// fold sincrónicamente.
func TestRefresher_LatestPliegaBajoDemanda(t *testing.T) {
	gw := newGateGateway()
	r := syncgw.NewRefresher(gw, projection.Options{}, testLogger())

	go func() {
		gate := <-gw.calls
		gate <- ledgerWith(7)
	}()

	latest, err := r.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, latest.Snapshots, 1)
	assert.True(t, latest.Snapshots[0].Balance.Equal(decimal.NewFromInt(7)))
}

// TestRefresher_CambioRemotoDisparaRefold: la señal de cambio remoto re-pliega
// en segundo plano y actualiza la proyección vigente.
func TestRefresher_CambioRemotoDisparaRefold(t *testing.T) {
	gw := newGateGateway()
	r := syncgw.NewRefresher(gw, projection.Options{}, testLogger())
	r.Start(context.Background())
	require.NotNil(t, gw.changeFn)

	go func() {
		gate := <-gw.calls
		gate <- ledgerWith(5)
	}()
	gw.changeFn()

	assert.Eventually(t, func() bool {
		latest, err := r.Latest(context.Background())
		if err != nil || len(latest.Snapshots) != 1 {
			return false
		}
		return latest.Snapshots[0].Balance.Equal(decimal.NewFromInt(5))
	}, time.Second, 10*time.Millisecond)
}

// TestRefresher_LogoutDescartaEstado: la orden remota de cierre de sesión
// invalida la proyección y notifica a los manejadores registrados.
func TestRefresher_LogoutDescartaEstado(t *testing.T) {
	gw := newGateGateway()
	r := syncgw.NewRefresher(gw, projection.Options{}, testLogger())
	r.Start(context.Background())
	require.NotNil(t, gw.logoutFn)

	notified := false
	r.OnLogout(func() { notified = true })

	go func() {
		gate := <-gw.calls
		gate <- ledgerWith(3)
	}()
	_, err := r.Latest(context.Background())
	require.NoError(t, err)

	gw.logoutFn()
	assert.True(t, notified, "el manejador de logout debe ser notificado")

	// La próxima consulta re-pliega desde cero.
	go func() {
		gate := <-gw.calls
		gate <- ledgerWith(9)
	}()
	latest, err := r.Latest(context.Background())
	require.NoError(t, err)
	assert.True(t, latest.Snapshots[0].Balance.Equal(decimal.NewFromInt(9)))
}

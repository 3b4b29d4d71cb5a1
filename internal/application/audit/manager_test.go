package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/audit"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ── fakes en memoria ──────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions map[string]*entity.InventorySession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entity.InventorySession)}
}

func (r *fakeSessionRepo) List() ([]*entity.InventorySession, error) {
	out := make([]*entity.InventorySession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSessionRepo) GetByID(id string) (*entity.InventorySession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	copied.Items = append([]entity.InventorySessionItem{}, s.Items...)
	return &copied, nil
}

func (r *fakeSessionRepo) Save(s *entity.InventorySession) error {
	copied := *s
	copied.Items = append([]entity.InventorySessionItem{}, s.Items...)
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) Delete(id string) error {
	delete(r.sessions, id)
	return nil
}

type fakeLockCoordinator struct {
	holder string
	since  time.Time
	now    func() time.Time
}

func (c *fakeLockCoordinator) TryLock(_ context.Context, _, holder string) (audit.LockGrant, error) {
	if c.holder == "" || c.holder == holder {
		if c.holder == "" {
			c.since = c.now()
		}
		c.holder = holder
		return audit.LockGrant{Granted: true, CurrentHolder: holder, Since: c.since}, nil
	}
	return audit.LockGrant{Granted: false, CurrentHolder: c.holder, Since: c.since}, nil
}

func (c *fakeLockCoordinator) Unlock(_ context.Context, _ string) error {
	c.holder = ""
	c.since = time.Time{}
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

var testClock = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newManager(t *testing.T) (*audit.Manager, *fakeSessionRepo, *fakeLockCoordinator) {
	t.Helper()
	repo := newFakeSessionRepo()
	locks := &fakeLockCoordinator{now: func() time.Time { return testClock }}
	m := audit.NewManager(repo, locks, 30*time.Minute)
	m.SetClock(func() time.Time { return testClock })
	return m, repo, locks
}

func importedItems() []audit.ImportedItem {
	return []audit.ImportedItem{
		{ItemCode: "SKU1", ItemName: "Tornillo 3/8", Warehouse: "W01", Address: "A1", Unit: "und", SystemBalance: decimal.NewFromInt(7)},
		{ItemCode: "SKU2", ItemName: "Tuerca 3/8", Warehouse: "W01", Address: "A2", Unit: "und", SystemBalance: decimal.NewFromInt(12)},
	}
}

func mustCreate(t *testing.T, m *audit.Manager) *entity.InventorySession {
	t.Helper()
	s, err := m.CreateSession("Toma marzo", "laura", importedItems())
	require.NoError(t, err)
	return s
}

// ── creación ──────────────────────────────────────────────────────────────────

// TestCreateSession_CongelaSaldos: la sesión nace OPEN con los saldos del
// sistema congelados y todos los ítems PENDING.
func TestCreateSession_CongelaSaldos(t *testing.T) {
	m, repo, _ := newManager(t)
	s := mustCreate(t, m)

	assert.Equal(t, entity.SessionStatusOpen, s.Status)
	assert.Equal(t, "laura", s.Responsible)
	require.Len(t, s.Items, 2)
	for _, it := range s.Items {
		assert.Equal(t, entity.SessionItemPending, it.Status)
		assert.Nil(t, it.CountedBalance)
	}
	assert.True(t, s.Items[0].SystemBalance.Equal(decimal.NewFromInt(7)))

	persisted, err := repo.GetByID(s.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted, "la sesión debe quedar persistida al crearse")
}

// TestCreateSession_ImportacionVaciaInvalida: sin ítems no hay sesión.
func TestCreateSession_ImportacionVaciaInvalida(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.CreateSession("Toma", "laura", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── bloqueo ───────────────────────────────────────────────────────────────────

// TestAcquireLock_Exclusividad: alice adquiere; bob recibe contención con el
// titular; tras ReleaseLock, bob adquiere.
func TestAcquireLock_Exclusividad(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)
	ctx := context.Background()

	res, err := m.AcquireLock(ctx, s.ID, "alice")
	require.NoError(t, err)
	assert.True(t, res.Granted)

	res, err = m.AcquireLock(ctx, s.ID, "bob")
	require.NoError(t, err)
	assert.False(t, res.Granted, "la contención no es error: resultado negativo normal")
	assert.Equal(t, "alice", res.CurrentHolder)

	require.NoError(t, m.ReleaseLock(ctx, s.ID))

	res, err = m.AcquireLock(ctx, s.ID, "bob")
	require.NoError(t, err)
	assert.True(t, res.Granted)
}

// TestAcquireLock_ReadquirirIdempotente: el mismo titular re-adquiere sin contención.
func TestAcquireLock_ReadquirirIdempotente(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)
	ctx := context.Background()

	_, err := m.AcquireLock(ctx, s.ID, "alice")
	require.NoError(t, err)
	res, err := m.AcquireLock(ctx, s.ID, "alice")
	require.NoError(t, err)
	assert.True(t, res.Granted)
}

// TestAcquireLock_SesionFinalizadaEsNoOp: una sesión finalizada es segura de
// ver para cualquiera; el bloqueo concede sin tocar el coordinador.
func TestAcquireLock_SesionFinalizadaEsNoOp(t *testing.T) {
	m, _, locks := newManager(t)
	s := mustCreate(t, m)
	require.NoError(t, m.Finalize(s))

	res, err := m.AcquireLock(context.Background(), s.ID, "bob")
	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Empty(t, locks.holder, "el coordinador no debe registrar titular para sesiones finalizadas")
}

// TestAcquireLock_BloqueoObsoleto: un bloqueo más viejo que el umbral se
// señala como obsoleto para habilitar el force-unlock administrativo.
func TestAcquireLock_BloqueoObsoleto(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)
	ctx := context.Background()

	_, err := m.AcquireLock(ctx, s.ID, "alice")
	require.NoError(t, err)

	// El reloj del manager avanza una hora; el bloqueo de alice queda viejo.
	m.SetClock(func() time.Time { return testClock.Add(time.Hour) })

	res, err := m.AcquireLock(ctx, s.ID, "bob")
	require.NoError(t, err)
	assert.False(t, res.Granted)
	assert.True(t, res.Stale, "bloqueo de una hora > umbral de 30m: obsoleto")
	assert.Equal(t, "alice", res.CurrentHolder)
}

// TestForceUnlock: la acción administrativa libera y reporta el titular previo.
func TestForceUnlock(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)
	ctx := context.Background()

	_, err := m.AcquireLock(ctx, s.ID, "alice")
	require.NoError(t, err)

	previous, err := m.ForceUnlock(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", previous)

	res, err := m.AcquireLock(ctx, s.ID, "bob")
	require.NoError(t, err)
	assert.True(t, res.Granted)
}

// TestReleaseLock_Idempotente: liberar una sesión libre no es error.
func TestReleaseLock_Idempotente(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)
	assert.NoError(t, m.ReleaseLock(context.Background(), s.ID))
	assert.NoError(t, m.ReleaseLock(context.Background(), s.ID))
}

// ── conteo ────────────────────────────────────────────────────────────────────

// TestRecordCount: valor no nulo marca CHECKED; nulo revierte a PENDING.
func TestRecordCount(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)
	itemID := s.Items[0].ID

	counted := decimal.NewFromInt(8)
	require.NoError(t, m.RecordCount(s, itemID, &counted))
	item := s.Item(itemID)
	assert.Equal(t, entity.SessionItemChecked, item.Status)
	assert.True(t, item.IsDivergent(), "contado 8 != congelado 7 => divergente")

	require.NoError(t, m.RecordCount(s, itemID, nil))
	assert.Equal(t, entity.SessionItemPending, item.Status)
	assert.Nil(t, item.CountedBalance)
}

// TestRecordCount_DivergenciaContraSaldoCongelado: la divergencia de auditoría
// usa el SystemBalance congelado, nunca la proyección viva.
func TestRecordCount_DivergenciaContraSaldoCongelado(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)
	itemID := s.Items[0].ID

	exact := decimal.NewFromInt(7)
	require.NoError(t, m.RecordCount(s, itemID, &exact))
	assert.False(t, s.Item(itemID).IsDivergent())
	assert.Empty(t, s.DivergentItems())
}

// TestRecordCount_Invalidos: ítem desconocido y conteo negativo se rechazan.
func TestRecordCount_Invalidos(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)

	counted := decimal.NewFromInt(1)
	assert.ErrorIs(t, m.RecordCount(s, "no-existe", &counted), domain.ErrItemNotFound)

	negative := decimal.NewFromInt(-1)
	assert.ErrorIs(t, m.RecordCount(s, s.Items[0].ID, &negative), domain.ErrInvalidInput)
}

// TestToggleChecked: alterna estado sin tocar el conteo.
func TestToggleChecked(t *testing.T) {
	m, _, _ := newManager(t)
	s := mustCreate(t, m)
	itemID := s.Items[1].ID

	require.NoError(t, m.ToggleChecked(s, itemID))
	assert.Equal(t, entity.SessionItemChecked, s.Item(itemID).Status)
	assert.Nil(t, s.Item(itemID).CountedBalance)

	require.NoError(t, m.ToggleChecked(s, itemID))
	assert.Equal(t, entity.SessionItemPending, s.Item(itemID).Status)
}

// ── finalización ──────────────────────────────────────────────────────────────

// TestFinalize_Terminal: finalizar estampa ClosedAt; toda mutación posterior
// se rechaza y una segunda finalización nunca des-finaliza.
func TestFinalize_Terminal(t *testing.T) {
	m, repo, _ := newManager(t)
	s := mustCreate(t, m)

	require.NoError(t, m.Finalize(s))
	assert.Equal(t, entity.SessionStatusFinalized, s.Status)
	require.NotNil(t, s.ClosedAt)
	assert.Equal(t, testClock, *s.ClosedAt)

	counted := decimal.NewFromInt(5)
	assert.ErrorIs(t, m.RecordCount(s, s.Items[0].ID, &counted), domain.ErrSessionFinalized)
	assert.ErrorIs(t, m.ToggleChecked(s, s.Items[0].ID), domain.ErrSessionFinalized)
	assert.ErrorIs(t, m.PersistProgress(s), domain.ErrSessionFinalized)

	assert.ErrorIs(t, m.Finalize(s), domain.ErrSessionFinalized)
	assert.Equal(t, entity.SessionStatusFinalized, s.Status, "la segunda finalización jamás des-finaliza")

	persisted, err := repo.GetByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusFinalized, persisted.Status)
}

// TestPersistProgress: guarda el avance con la sesión aún OPEN.
func TestPersistProgress(t *testing.T) {
	m, repo, _ := newManager(t)
	s := mustCreate(t, m)

	counted := decimal.NewFromInt(8)
	require.NoError(t, m.RecordCount(s, s.Items[0].ID, &counted))
	require.NoError(t, m.PersistProgress(s))

	persisted, err := repo.GetByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusOpen, persisted.Status)
	require.NotNil(t, persisted.Items[0].CountedBalance)
	assert.True(t, persisted.Items[0].CountedBalance.Equal(counted))
}

// ── borrado ───────────────────────────────────────────────────────────────────

// TestDeleteSession: borra sin importar el estado y suelta el bloqueo.
func TestDeleteSession(t *testing.T) {
	m, repo, locks := newManager(t)
	s := mustCreate(t, m)
	ctx := context.Background()

	_, err := m.AcquireLock(ctx, s.ID, "alice")
	require.NoError(t, err)
	require.NoError(t, m.Finalize(mustGet(t, m, s.ID)))

	require.NoError(t, m.DeleteSession(ctx, s.ID))
	assert.Empty(t, locks.holder)

	persisted, err := repo.GetByID(s.ID)
	require.NoError(t, err)
	assert.Nil(t, persisted)

	assert.ErrorIs(t, m.DeleteSession(ctx, s.ID), domain.ErrNotFound)
}

func mustGet(t *testing.T, m *audit.Manager, id string) *entity.InventorySession {
	t.Helper()
	s, err := m.GetSession(id)
	require.NoError(t, err)
	return s
}

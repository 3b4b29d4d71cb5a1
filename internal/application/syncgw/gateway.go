// Package syncgw define la puerta de sincronización con el entorno: el core
// no implementa transporte; solo exige poder re-traer el libro completo y
// enterarse de escrituras remotas o de la orden de cierre de sesión.
package syncgw

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// Gateway colaborador externo de sincronización. Ante un cambio remoto la
// única responsabilidad del core es re-plegar la proyección completa; nunca
// mezclar deltas a mano.
type Gateway interface {
	// PullLatest re-trae el libro de movimientos completo.
	PullLatest(ctx context.Context) ([]entity.MovementRecord, error)
	// OnRemoteChange registra el callback a invocar cuando otro proceso
	// escribe sobre el libro.
	OnRemoteChange(fn func())
	// OnRemoteLogout registra el callback de la orden remota de cierre de
	// sesión: descartar identidad y estado local, exigir re-autenticación.
	OnRemoteLogout(fn func())
}

// Puller origen del libro (lo satisface el repositorio postgres).
type Puller interface {
	ListAll() ([]entity.MovementRecord, error)
}

// Subscriber origen de las señales remotas (lo satisface el notificador redis).
type Subscriber interface {
	OnRemoteChange(fn func())
	OnRemoteLogout(fn func())
}

// StoreGateway composición estándar del Gateway: pull desde el store y
// suscripciones desde el notificador pub/sub.
type StoreGateway struct {
	puller Puller
	sub    Subscriber
}

var _ Gateway = (*StoreGateway)(nil)

// NewStoreGateway construye la puerta de sincronización.
func NewStoreGateway(puller Puller, sub Subscriber) *StoreGateway {
	return &StoreGateway{puller: puller, sub: sub}
}

// PullLatest trae el libro completo del store.
func (g *StoreGateway) PullLatest(_ context.Context) ([]entity.MovementRecord, error) {
	return g.puller.ListAll()
}

// OnRemoteChange delega en el notificador.
func (g *StoreGateway) OnRemoteChange(fn func()) { g.sub.OnRemoteChange(fn) }

// OnRemoteLogout delega en el notificador.
func (g *StoreGateway) OnRemoteLogout(fn func()) { g.sub.OnRemoteLogout(fn) }

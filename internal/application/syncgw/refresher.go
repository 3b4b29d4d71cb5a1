package syncgw

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/Almacen-api/internal/domain/projection"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// Refresher mantiene la proyección vigente re-plegando el libro ante cambios
// remotos. Serializa a nivel de disparador: un pull superado por otro más
// nuevo descarta su resultado en vez de aplicarlo fuera de orden
// (último-escritor-gana en el disparo, no en los registros).
type Refresher struct {
	gateway Gateway
	opts    projection.Options
	log     *logger.Logger

	gen    atomic.Uint64 // generación del pull más reciente iniciado
	mu     sync.Mutex
	latest *projection.Result

	logoutMu sync.Mutex
	onLogout []func()
}

// NewRefresher construye el refresher.
func NewRefresher(gateway Gateway, opts projection.Options, log *logger.Logger) *Refresher {
	return &Refresher{gateway: gateway, opts: opts, log: log}
}

// Start registra los callbacks en la puerta de sincronización. Los cambios
// remotos disparan un re-fold asíncrono; la orden de logout descarta el estado
// local y notifica a los manejadores registrados con OnLogout.
func (r *Refresher) Start(ctx context.Context) {
	r.gateway.OnRemoteChange(func() {
		go func() {
			if _, err := r.Refresh(ctx); err != nil {
				r.log.Warn().Err(err).Msg("re-fold por cambio remoto falló")
			}
		}()
	})
	r.gateway.OnRemoteLogout(func() {
		r.log.Info().Msg("orden remota de cierre de sesión recibida")
		r.Invalidate()
		r.logoutMu.Lock()
		handlers := append([]func(){}, r.onLogout...)
		r.logoutMu.Unlock()
		for _, fn := range handlers {
			fn()
		}
	})
}

// OnLogout registra un manejador para la orden remota de cierre de sesión.
func (r *Refresher) OnLogout(fn func()) {
	r.logoutMu.Lock()
	r.onLogout = append(r.onLogout, fn)
	r.logoutMu.Unlock()
}

// Refresh re-trae el libro y lo pliega. Si durante el pull arrancó otro más
// nuevo, el resultado se devuelve pero no se aplica como proyección vigente.
func (r *Refresher) Refresh(ctx context.Context) (*projection.Result, error) {
	gen := r.gen.Add(1)

	records, err := r.gateway.PullLatest(ctx)
	if err != nil {
		return nil, err
	}
	result := projection.Project(records, r.opts)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen < r.gen.Load() {
		// Pull obsoleto: otro más nuevo inició después; descartar.
		r.log.Debug().Uint64("generation", gen).Msg("pull obsoleto descartado")
		return &result, nil
	}
	r.latest = &result
	return &result, nil
}

// Latest devuelve la proyección vigente; si aún no hay, pliega sincrónicamente.
func (r *Refresher) Latest(ctx context.Context) (*projection.Result, error) {
	r.mu.Lock()
	cached := r.latest
	r.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return r.Refresh(ctx)
}

// Invalidate descarta la proyección vigente (se recalcula en el próximo Latest).
func (r *Refresher) Invalidate() {
	r.mu.Lock()
	r.latest = nil
	r.mu.Unlock()
}

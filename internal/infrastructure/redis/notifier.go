package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// Canales pub/sub de coordinación entre clientes.
const (
	ChannelLedgerChanged = "almacen:ledger:changed"
	ChannelLogout        = "almacen:logout"
)

// Notifier publica y escucha las señales remotas: cambio del libro de
// movimientos y orden de cierre de sesión. La publicación es best-effort;
// un fallo se registra y no se propaga (el dato ya está persistido, los
// demás clientes convergen en su próximo refresh manual).
type Notifier struct {
	client *redis.Client
	log    *logger.Logger

	mu        sync.Mutex
	onChange  []func()
	onLogout  []func()
	listening bool
}

// NewNotifier crea el notificador sobre el cliente Redis.
func NewNotifier(client *redis.Client, log *logger.Logger) *Notifier {
	return &Notifier{client: client, log: log}
}

// NotifyLedgerChanged publica la señal de que el libro cambió.
func (n *Notifier) NotifyLedgerChanged(ctx context.Context) {
	if err := n.client.Publish(ctx, ChannelLedgerChanged, "changed").Err(); err != nil {
		n.log.Warn().Err(err).Str("channel", ChannelLedgerChanged).Msg("no se pudo publicar cambio del libro")
	}
}

// NotifyLogout publica la orden de cierre de sesión para todos los clientes.
func (n *Notifier) NotifyLogout(ctx context.Context) {
	if err := n.client.Publish(ctx, ChannelLogout, "logout").Err(); err != nil {
		n.log.Warn().Err(err).Str("channel", ChannelLogout).Msg("no se pudo publicar cierre de sesión")
	}
}

// OnRemoteChange registra un callback para la señal de cambio del libro.
func (n *Notifier) OnRemoteChange(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = append(n.onChange, fn)
}

// OnRemoteLogout registra un callback para la orden remota de cierre de sesión.
func (n *Notifier) OnRemoteLogout(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onLogout = append(n.onLogout, fn)
}

// Listen se suscribe a los canales y despacha los callbacks registrados.
// Bloquea hasta que ctx se cancele; llamar en una goroutine.
func (n *Notifier) Listen(ctx context.Context) {
	n.mu.Lock()
	if n.listening {
		n.mu.Unlock()
		return
	}
	n.listening = true
	n.mu.Unlock()

	sub := n.client.Subscribe(ctx, ChannelLedgerChanged, ChannelLogout)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch msg.Channel {
			case ChannelLedgerChanged:
				n.dispatch(&n.onChange)
			case ChannelLogout:
				n.dispatch(&n.onLogout)
			}
		}
	}
}

func (n *Notifier) dispatch(fns *[]func()) {
	n.mu.Lock()
	callbacks := make([]func(), len(*fns))
	copy(callbacks, *fns)
	n.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

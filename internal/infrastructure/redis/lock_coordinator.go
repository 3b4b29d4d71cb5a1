package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Almacen-api/internal/application/audit"
)

const (
	// holderKeyPrefix hash con el titular del bloqueo de una sesión. Sin TTL:
	// el bloqueo es consultivo y no vence solo; un titular desconectado se
	// resuelve con force-unlock, no por expiración silenciosa.
	holderKeyPrefix = "almacen:session-lock:"

	// mutexTTL vida del mutex corto que serializa el check-and-set del titular.
	// Solo cubre la operación, no la tenencia del bloqueo.
	mutexTTL = 3 * time.Second
)

// LockCoordinator coordinación del bloqueo de edición exclusiva por sesión.
// El titular vive en un hash Redis; un mutex redislock de vida corta evita
// que dos TryLock simultáneos se pisen al leer-y-escribir.
type LockCoordinator struct {
	client *redis.Client
	locker *redislock.Client
}

var _ audit.LockCoordinator = (*LockCoordinator)(nil)

// NewLockCoordinator crea el coordinador sobre el cliente Redis.
func NewLockCoordinator(client *redis.Client) *LockCoordinator {
	return &LockCoordinator{client: client, locker: redislock.New(client)}
}

// TryLock intenta adquirir el bloqueo de la sesión para holder. Re-adquirir
// siendo ya titular concede (idempotente). La contención no es error: informa
// el titular actual y desde cuándo.
func (c *LockCoordinator) TryLock(ctx context.Context, sessionID, holder string) (audit.LockGrant, error) {
	mutex, err := c.locker.Obtain(ctx, holderKeyPrefix+sessionID+":mutex", mutexTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		// Otro TryLock está en curso; para el que llega segundo es contención.
		current, since, gerr := c.currentHolder(ctx, sessionID)
		if gerr != nil {
			return audit.LockGrant{}, gerr
		}
		return audit.LockGrant{Granted: false, CurrentHolder: current, Since: since}, nil
	}
	if err != nil {
		return audit.LockGrant{}, fmt.Errorf("obtener mutex de bloqueo: %w", err)
	}
	defer func() { _ = mutex.Release(ctx) }()

	current, since, err := c.currentHolder(ctx, sessionID)
	if err != nil {
		return audit.LockGrant{}, err
	}
	if current != "" && current != holder {
		return audit.LockGrant{Granted: false, CurrentHolder: current, Since: since}, nil
	}
	if current == holder {
		return audit.LockGrant{Granted: true, CurrentHolder: holder, Since: since}, nil
	}

	now := time.Now().UTC()
	err = c.client.HSet(ctx, holderKeyPrefix+sessionID, map[string]any{
		"holder": holder,
		"since":  now.Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return audit.LockGrant{}, fmt.Errorf("registrar titular del bloqueo: %w", err)
	}
	return audit.LockGrant{Granted: true, CurrentHolder: holder, Since: now}, nil
}

// Unlock libera el bloqueo sin condiciones. Idempotente: liberar una sesión
// libre no es error.
func (c *LockCoordinator) Unlock(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, holderKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("liberar bloqueo: %w", err)
	}
	return nil
}

func (c *LockCoordinator) currentHolder(ctx context.Context, sessionID string) (string, time.Time, error) {
	fields, err := c.client.HGetAll(ctx, holderKeyPrefix+sessionID).Result()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("consultar titular del bloqueo: %w", err)
	}
	holder := fields["holder"]
	if holder == "" {
		return "", time.Time{}, nil
	}
	since, err := time.Parse(time.RFC3339Nano, fields["since"])
	if err != nil {
		// Campo corrupto: se conserva el titular y se deja since en cero.
		return holder, time.Time{}, nil
	}
	return holder, since, nil
}

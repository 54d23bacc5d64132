package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/didierkasongo/ndaku/internal/pkg/cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DuplicateWindow is how long after a paid manual activation a repeat
// activation for the same (subscriber, plan) is rejected. Guards against
// double submission, not legitimate repeat purchases.
const DuplicateWindow = 5 * time.Minute

// activationLockTTL bounds how long a crashed activation can hold its lock.
const activationLockTTL = 30 * time.Second

// ActivationLocker serializes activations per subscriber. The window query in
// checkDuplicateActivation is read-then-decide; the lock is what actually
// closes the race between two concurrent requests for the same subscriber.
type ActivationLocker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisActivationLocker struct {
	client *redis.Client
}

// NewRedisActivationLocker builds a locker on the shared cache client.
func NewRedisActivationLocker() ActivationLocker {
	return &redisActivationLocker{client: cache.GetClient()}
}

func (l *redisActivationLocker) Acquire(ctx context.Context, key string) (bool, error) {
	return l.client.SetNX(ctx, key, "1", activationLockTTL).Result()
}

func (l *redisActivationLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}

func activationLockKey(userID uint) string {
	return fmt.Sprintf("billing:activation:lock:%d", userID)
}

// checkDuplicateActivation applies both guard checks before an activation may
// proceed. Order matters: the recent-duplicate window runs first, so a
// double-submitted request reads as a retry rather than a plan conflict.
func (s *Service) checkDuplicateActivation(repo Repository, userID, agencyID, planID uint, now time.Time) error {
	recent, err := repo.CountRecentPaidActivations(userID, planID, now.Add(-DuplicateWindow))
	if err != nil {
		return wrapError(KindPersistence, "failed to check recent activations", err)
	}
	if recent > 0 {
		return newError(KindTooSoon,
			fmt.Sprintf("an activation for this plan was recorded within the last %d minutes; wait before retrying",
				int(DuplicateWindow.Minutes())))
	}

	current, err := repo.GetActiveSubscriptionForPair(userID, agencyID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return wrapError(KindPersistence, "failed to load current subscription", err)
	}
	if current != nil && current.PlanID == planID && current.IsCurrent(now) {
		return newError(KindNoopConflict, "plan already active for this subscriber")
	}
	return nil
}

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/didierkasongo/ndaku/app/repository"
	"github.com/didierkasongo/ndaku/internal/pkg/billing"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
	"github.com/didierkasongo/ndaku/internal/pkg/entitlements"
	metrics "github.com/didierkasongo/ndaku/internal/pkg/metrics/counter"
)

const (
	counterFlushInterval = 1 * time.Minute
	expiryInterval       = 1 * time.Hour
)

// Manager runs the periodic background tasks: flushing Redis view counters
// into MySQL and expiring overdue subscriptions.
type Manager struct {
	counterFlushTicker *time.Ticker
	expiryTicker       *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global background task manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// Start starts the background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Worker Manager] Starting background tasks")

	m.counterFlushTicker = time.NewTicker(counterFlushInterval)
	m.wg.Add(1)
	go m.counterFlushWorker()

	m.expiryTicker = time.NewTicker(expiryInterval)
	m.wg.Add(1)
	go m.expiryWorker()
}

// Stop stops the background tasks and waits for the workers to drain
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Worker Manager] Stopping background tasks")
	close(m.stopCh)
	m.counterFlushTicker.Stop()
	m.expiryTicker.Stop()
	m.wg.Wait()
	m.running = false
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Worker Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := m.flushCountersOnce(); err != nil {
				log.Errorf("[Worker Manager] Counter flush error: %v", err)
			}
		}
	}
}

func (m *Manager) expiryWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Worker Manager] Expiry worker stopping")
			return
		case <-m.expiryTicker.C:
			if err := m.expireSubscriptionsOnce(); err != nil {
				log.Errorf("[Worker Manager] Subscription expiry error: %v", err)
			}
			if err := m.terminateEndedLeasesOnce(); err != nil {
				log.Errorf("[Worker Manager] Lease sweep error: %v", err)
			}
		}
	}
}

func (m *Manager) flushCountersOnce() error {
	// Flush Redis -> DB (batched CASE update)
	return metrics.FlushAll()
}

// expireSubscriptionsOnce moves overdue subscriptions to expired and trims
// each downgraded subscriber's resources to the free-tier quota.
func (m *Manager) expireSubscriptionsOnce() error {
	db := database.GetDB()
	svc := billing.NewServiceFromDB(db)

	userIDs, err := svc.ExpireOverdueSubscriptions(context.Background())
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		plan, err := currentPlanFor(svc, userID)
		if err != nil {
			log.Errorf("[Worker Manager] Failed to load plan for user %d: %v", userID, err)
			continue
		}
		if n, err := entitlements.DeactivateExcess(db, userID, plan); err != nil {
			log.Errorf("[Worker Manager] Failed to trim resources for user %d: %v", userID, err)
		} else if n > 0 {
			log.Infof("[Worker Manager] Deactivated %d excess resources for user %d", n, userID)
		}
	}

	if len(userIDs) > 0 {
		log.Infof("[Worker Manager] Expired %d overdue subscriptions", len(userIDs))
	}
	return nil
}

// terminateEndedLeasesOnce closes active leases past their end date and
// puts the properties back on the market.
func (m *Manager) terminateEndedLeasesOnce() error {
	repos := repository.GetGlobalRepositories()

	leases, err := repos.Lease.ListEndingBefore(time.Now())
	if err != nil {
		return err
	}

	for i := range leases {
		lease := &leases[i]
		lease.Status = models.LeaseStatusTerminated
		lease.IsActive = false
		if err := repos.Lease.Update(lease); err != nil {
			log.Errorf("[Worker Manager] Failed to terminate lease %d: %v", lease.ID, err)
			continue
		}
		if err := repos.Property.UpdateStatus(lease.PropertyID, models.PropertyStatusAvailable); err != nil {
			log.Errorf("[Worker Manager] Failed to free property %d: %v", lease.PropertyID, err)
		}
	}

	if len(leases) > 0 {
		log.Infof("[Worker Manager] Terminated %d ended leases", len(leases))
	}
	return nil
}

// currentPlanFor returns the user's plan after expiry, nil for the free-tier
// fallback limits.
func currentPlanFor(svc *billing.Service, userID uint) (*models.SubscriptionPlan, error) {
	sub, err := svc.CurrentSubscription(context.Background(), userID)
	if err != nil {
		if billing.IsKind(err, billing.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub.Plan, nil
}

// RunExpiryOnce exposes a manual trigger for a single expiry sweep (admin use).
func (m *Manager) RunExpiryOnce() error {
	return m.expireSubscriptionsOnce()
}

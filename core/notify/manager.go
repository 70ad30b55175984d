package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gridpulse/csipd/core/logger"
	"github.com/gridpulse/csipd/core/model"
	"github.com/gridpulse/csipd/internal/taskq"
)

// Manager is the single call-in point for the rest of the server. After a
// transaction touching notifiable rows commits, the committing code calls
// NotifyChangedEntities with the resource kind and the exact change
// timestamp it wrote.
type Manager struct {
	broker  taskq.Broker
	enabled bool
	log     logger.Logger
}

// NewManager creates a Manager. broker may be nil when notifications are
// disabled; the enabled flag is injected from configuration rather than
// consulted globally so isolated instances can coexist.
func NewManager(broker taskq.Broker, enabled bool, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop{}
	}
	return &Manager{broker: broker, enabled: enabled, log: log}
}

// NotifyChangedEntities enqueues a dispatch run for every row of resource
// changed at exactly ts. Returns true when the run was enqueued, false when
// notifications are disabled or the enqueue itself failed. It never blocks
// on, and never fails because of, actual delivery: the caller's transaction
// path must not depend on this subsystem.
func (m *Manager) NotifyChangedEntities(ctx context.Context, resource model.SubscriptionResource, ts time.Time) bool {
	if !m.enabled || m.broker == nil {
		return false
	}

	payload, err := json.Marshal(CheckTask{Resource: resource.String(), TimestampMS: ts.UnixMilli()})
	if err != nil {
		m.log.Errorf("encode check task for %s at %s: %v", resource, ts, err)
		return false
	}
	if err := m.broker.Enqueue(ctx, taskq.Task{Name: TaskCheck, Payload: payload}); err != nil {
		m.log.Errorf("enqueue check for %s at %s: %v", resource, ts, err)
		return false
	}
	return true
}

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/repository"
)

const auditTimeout = 5 * time.Second

// AuditActor turns domain events into audit log entries.
type AuditActor struct {
	store   repository.AuditRepository
	service string
	logger  *zap.Logger
}

func (a *AuditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.logger.Info("Audit actor started")

	case *actor.Stopping:
		a.logger.Info("Audit actor stopping")

	case *OrderPlaced:
		a.write(&repository.AuditLog{
			Action:   "order.placed",
			EntityID: msg.ID,
			Data: bson.M{
				"orderId":     msg.OrderID,
				"city":        msg.City,
				"totalAmount": msg.TotalAmount,
				"totalItems":  msg.TotalItems,
			},
		})

	case *OrderStatusChanged:
		a.write(&repository.AuditLog{
			Action:   "order.status_changed",
			EntityID: msg.ID,
			Actor:    msg.Actor,
			Data: bson.M{
				"orderId": msg.OrderID,
				"from":    string(msg.From),
				"to":      string(msg.To),
			},
		})

	case *CatalogChanged:
		a.write(&repository.AuditLog{
			Action:   fmt.Sprintf("%s.%s", msg.Entity, msg.Action),
			EntityID: msg.ID,
			Actor:    msg.Actor,
			Data:     bson.M{"name": msg.Name},
		})
	}
}

// write never fails the sender; a lost audit entry is only logged.
func (a *AuditActor) write(entry *repository.AuditLog) {
	entry.Service = a.service
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	if err := a.store.CreateAuditLog(ctx, entry); err != nil {
		a.logger.Warn("Failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

// Bus delivers events to the audit actor. Publish never blocks on storage.
type Bus struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewBus(service string, store repository.AuditRepository, logger *zap.Logger) (*Bus, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &AuditActor{store: store, service: service, logger: logger.Named("audit-actor")}
	})
	pid, err := system.Root.SpawnNamed(props, "audit-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}

	return &Bus{system: system, pid: pid, logger: logger}, nil
}

// Publish sends value events by pointer so the actor sees one message type
// per event kind.
func (b *Bus) Publish(event any) {
	switch e := event.(type) {
	case OrderPlaced:
		event = &e
	case OrderStatusChanged:
		event = &e
	case CatalogChanged:
		event = &e
	}
	b.system.Root.Send(b.pid, event)
}

// Close drains the mailbox and stops the actor.
func (b *Bus) Close() {
	if err := b.system.Root.PoisonFuture(b.pid).Wait(); err != nil {
		b.logger.Warn("Audit actor did not stop cleanly", zap.Error(err))
	}
}

package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lims/internal/events"
	"github.com/noah-isme/backend-lims/internal/lock"
	"github.com/noah-isme/backend-lims/internal/obs"
	"github.com/noah-isme/backend-lims/internal/order"
)

// Store persists batches and client invoices.
type Store interface {
	FindBatchByTitle(ctx context.Context, category, title string) (Batch, error)
	// CreateBatchIfAbsent inserts b unless a batch with the same category and
	// period start exists, returning the stored batch and whether it was created.
	CreateBatchIfAbsent(ctx context.Context, b Batch) (Batch, bool, error)
	AttachOrder(ctx context.Context, batch Batch, a Attachment) (ClientInvoice, error)
}

// Locker runs fn while holding a cross-process lock on key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Receipt is the outcome of issuing an order onto a batch.
type Receipt struct {
	Batch   Batch         `json:"batch"`
	Created bool          `json:"created"`
	Invoice ClientInvoice `json:"invoice"`
}

// Manager issues orders onto the ad hoc batch of the current month.
type Manager struct {
	Store    Store
	Locker   Locker
	Events   Emitter
	Logger   zerolog.Logger
	Now      func() time.Time
	Location *time.Location
	Category string
	LockTTL  time.Duration
}

// IssueAdHoc finds or creates the current month's batch and attaches the order
// under its client with the order total. Storage errors are returned as is.
func (m *Manager) IssueAdHoc(ctx context.Context, o order.Order) (Receipt, error) {
	if m == nil || m.Store == nil {
		return Receipt{}, errors.New("invoice: store not configured")
	}
	now := m.now()
	batch, created, err := m.findOrCreate(ctx, now)
	if err != nil {
		m.count("error")
		return Receipt{}, err
	}

	inv, err := m.Store.AttachOrder(ctx, batch, Attachment{
		ClientID: o.ClientID,
		OrderID:  o.ID,
		Total:    order.Total(o),
	})
	if err != nil {
		m.count("error")
		return Receipt{}, err
	}

	logger := m.Logger.With().Str("batch_id", batch.ID.String()).Str("order_id", o.ID).Logger()
	if created {
		m.count("created")
		logger.Info().Str("title", batch.Title).Msg("invoice batch created")
		m.emit(ctx, logger, events.TopicInvoiceBatchCreated, batch.ID.String(), batch)
	} else {
		m.count("reused")
		logger.Debug().Str("title", batch.Title).Msg("invoice batch reused")
	}
	m.emit(ctx, logger, events.TopicOrderInvoiced, o.ID, map[string]any{
		"batch_id":  batch.ID,
		"client_id": o.ClientID,
		"total":     inv.Total,
	})
	return Receipt{Batch: batch, Created: created, Invoice: inv}, nil
}

func (m *Manager) findOrCreate(ctx context.Context, now time.Time) (Batch, bool, error) {
	category := m.category()
	var (
		batch   Batch
		created bool
	)
	run := func(ctx context.Context) error {
		found, err := m.Store.FindBatchByTitle(ctx, category, Title(now, category))
		if err == nil {
			batch = found
			return nil
		}
		if !errors.Is(err, ErrBatchNotFound) {
			return err
		}
		batch, created, err = m.Store.CreateBatchIfAbsent(ctx, NewBatch(now, category))
		return err
	}
	if m.Locker == nil {
		return batch, created, run(ctx)
	}
	key := lock.Key("invoice-batch", category, now.Format("2006-01"))
	err := m.Locker.WithLock(ctx, key, m.lockTTL(), run)
	return batch, created, err
}

func (m *Manager) emit(ctx context.Context, logger zerolog.Logger, topic, aggregateID string, payload any) {
	if m.Events == nil {
		return
	}
	if _, err := m.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		logger.Warn().Err(err).Str("topic", topic).Msg("emit invoice event")
	}
}

func (m *Manager) count(result string) {
	if obs.InvoiceBatchTotal != nil {
		obs.InvoiceBatchTotal.WithLabelValues(result).Inc()
	}
}

func (m *Manager) now() time.Time {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	loc := m.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (m *Manager) category() string {
	if m.Category == "" {
		return DefaultCategory
	}
	return m.Category
}

func (m *Manager) lockTTL() time.Duration {
	if m.LockTTL <= 0 {
		return 10 * time.Second
	}
	return m.LockTTL
}

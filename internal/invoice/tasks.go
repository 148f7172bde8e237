package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lims/internal/obs"
	"github.com/noah-isme/backend-lims/internal/order"
)

// TypeIssueAdHoc is the asynq task type for issuing one order onto the ad hoc batch.
const TypeIssueAdHoc = "invoice:issue_ad_hoc"

// IssuePayload is the task body.
type IssuePayload struct {
	OrderID string `json:"order_id"`
}

// NewIssueTask builds a task that is unique per order for uniqueFor and never retried.
func NewIssueTask(orderID string, uniqueFor time.Duration) (*asynq.Task, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("invoice: order id is required")
	}
	data, err := json.Marshal(IssuePayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(0)}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor))
	}
	return asynq.NewTask(TypeIssueAdHoc, data, opts...), nil
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueued reports the queueing outcome for one order.
type Enqueued struct {
	OrderID string `json:"order_id"`
	TaskID  string `json:"task_id,omitempty"`
	Status  string `json:"status"`
}

// TaskQueue enqueues bulk ad hoc invoicing.
type TaskQueue struct {
	Client    TaskEnqueuer
	Queue     string
	UniqueFor time.Duration
}

// EnqueueIssue enqueues one task per order. Orders already queued within the
// uniqueness window are reported as "duplicate"; other enqueue errors abort.
func (q TaskQueue) EnqueueIssue(ctx context.Context, orderIDs []string) ([]Enqueued, error) {
	if q.Client == nil {
		return nil, errors.New("invoice: task client not configured")
	}
	var opts []asynq.Option
	if q.Queue != "" {
		opts = append(opts, asynq.Queue(q.Queue))
	}
	out := make([]Enqueued, 0, len(orderIDs))
	for _, id := range orderIDs {
		task, err := NewIssueTask(id, q.UniqueFor)
		if err != nil {
			return out, err
		}
		info, err := q.Client.EnqueueContext(ctx, task, opts...)
		switch {
		case errors.Is(err, asynq.ErrDuplicateTask), errors.Is(err, asynq.ErrTaskIDConflict):
			out = append(out, Enqueued{OrderID: strings.TrimSpace(id), Status: "duplicate"})
		case err != nil:
			return out, fmt.Errorf("invoice: enqueue %s: %w", id, err)
		default:
			out = append(out, Enqueued{OrderID: strings.TrimSpace(id), TaskID: info.ID, Status: "queued"})
		}
	}
	return out, nil
}

// Issuer issues a single order; *Manager implements it.
type Issuer interface {
	IssueAdHoc(ctx context.Context, o order.Order) (Receipt, error)
}

// TaskHandler processes TypeIssueAdHoc tasks in the worker.
type TaskHandler struct {
	Orders  order.Repository
	Manager Issuer
	Logger  zerolog.Logger
}

// Register mounts the handler on mux.
func (h TaskHandler) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeIssueAdHoc, h)
}

// ProcessTask implements asynq.Handler. Malformed payloads and unknown orders
// are not retried.
func (h TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	result := "ok"
	defer func() {
		if obs.InvoiceTaskDuration != nil {
			obs.InvoiceTaskDuration.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	var payload IssuePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || strings.TrimSpace(payload.OrderID) == "" {
		result = "invalid"
		return fmt.Errorf("invoice: bad task payload: %w", asynq.SkipRetry)
	}
	logger := obs.LoggerWithTrace(ctx, h.Logger).With().Str("order_id", payload.OrderID).Logger()

	o, err := h.Orders.GetOrder(ctx, payload.OrderID)
	if err != nil {
		result = "error"
		if errors.Is(err, order.ErrOrderNotFound) {
			logger.Warn().Msg("invoice task for unknown order")
			return fmt.Errorf("invoice: %w: %w", err, asynq.SkipRetry)
		}
		logger.Error().Err(err).Msg("load order for invoicing")
		return err
	}
	receipt, err := h.Manager.IssueAdHoc(ctx, o)
	if err != nil {
		result = "error"
		logger.Error().Err(err).Msg("issue ad hoc invoice")
		return err
	}
	logger.Info().
		Str("batch_id", receipt.Batch.ID.String()).
		Bool("batch_created", receipt.Created).
		Str("client_total", receipt.Invoice.Total.String()).
		Msg("order invoiced")
	return nil
}

package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lims/internal/config"
)

func testDeps(t *testing.T) *Dependencies {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Location:        time.UTC,
		InvoiceCategory: "ad hoc",
		InvoiceLockTTL:  5 * time.Second,
		ReportCacheTTL:  time.Minute,
		IdempotencyTTL:  24 * time.Hour,
	}
	return &Dependencies{Config: cfg, Redis: redis.NewClient(&redis.Options{Addr: mr.Addr(), DB: 2})}
}

func TestBuilders(t *testing.T) {
	d := testDeps(t)

	m := d.InvoiceManager()
	require.Equal(t, "ad hoc", m.Category)
	require.Equal(t, 5*time.Second, m.LockTTL)
	require.Equal(t, time.UTC, m.Location)

	q := d.InvoiceTasks()
	require.Equal(t, InvoiceQueue, q.Queue)
	require.Equal(t, 24*time.Hour, q.UniqueFor)

	svc := d.ReportService()
	require.NotNil(t, svc.Cache)
	require.NotNil(t, svc.Source)

	opt := d.RedisConnOpt()
	require.Equal(t, d.Redis.Options().Addr, opt.Addr)
	require.Equal(t, 2, opt.DB)
}

func TestCloseRunsInReverse(t *testing.T) {
	d := testDeps(t)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		d.closers = append(d.closers, func(context.Context) error { order = append(order, i); return nil })
	}
	d.Close(context.Background())
	require.Equal(t, []int{2, 1, 0}, order)
	require.Empty(t, d.closers)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, "lims-test")
	require.Error(t, err)
}

package workers

import (
	"anonchat/domain"
	"anonchat/mocks"
	"anonchat/runtime"
	"anonchat/services"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const waiter domain.UserHandle = 100

func newSweeperFixture(t *testing.T, now func() time.Time) (*runtime.Registry, *mocks.MockTransport, *Sweeper) {
	t.Helper()
	registry, transport, _, sweeper := newSweeperWorld(t, now)
	return registry, transport, sweeper
}

func newSweeperWorld(t *testing.T, now func() time.Time) (*runtime.Registry, *mocks.MockTransport, *services.Reveal, *Sweeper) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	transport := mocks.NewMockTransport(ctrl)
	registry := runtime.NewRegistry()
	reveal := services.NewReveal(log, registry, transport, 100*time.Millisecond)
	sweeper := NewSweeper(log, registry, transport, reveal, 30*time.Second, 45*time.Second, 10*time.Minute, 100*time.Millisecond)
	sweeper.clock = now
	return registry, transport, reveal, sweeper
}

func TestSweeper_Tick_Evicts_Stale_Waiter_With_Retry_Offer(t *testing.T) {
	req := require.New(t)
	start := time.Now()
	registry, transport, sweeper := newSweeperFixture(t, func() time.Time {
		return start.Add(46 * time.Second)
	})

	registry.TryEnqueueWaiting(waiter, start)

	var notice domain.Message
	transport.EXPECT().
		Send(gomock.Any(), waiter, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.UserHandle, msg domain.Message) error {
			notice = msg
			return nil
		})

	sweeper.Tick(context.Background())

	req.False(registry.IsWaiting(waiter))
	req.Equal(services.MsgWaitTimeout, notice.Text)
	req.Len(notice.Buttons, 1)
	cb, err := domain.ParseCallback(notice.Buttons[0][0].Payload)
	req.NoError(err)
	req.Equal(domain.RetryConnect, cb.Action)
}

func TestSweeper_Tick_Leaves_Fresh_Waiter(t *testing.T) {
	req := require.New(t)
	start := time.Now()
	registry, transport, sweeper := newSweeperFixture(t, func() time.Time {
		return start.Add(10 * time.Second)
	})

	registry.TryEnqueueWaiting(waiter, start)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	sweeper.Tick(context.Background())

	req.True(registry.IsWaiting(waiter))
}

func TestSweeper_Tick_Empty_Slot_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry, transport, sweeper := newSweeperFixture(t, time.Now)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	sweeper.Tick(context.Background())
	req.False(registry.Stats().Waiting)
}

func TestSweeper_Eviction_Commits_Before_Notification(t *testing.T) {
	req := require.New(t)
	start := time.Now()
	registry, transport, sweeper := newSweeperFixture(t, func() time.Time {
		return start.Add(time.Minute)
	})

	registry.TryEnqueueWaiting(waiter, start)
	transport.EXPECT().
		Send(gomock.Any(), waiter, gomock.Any()).
		Return(fmt.Errorf("bot was blocked"))

	sweeper.Tick(context.Background())

	// A dropped notice never restores the slot
	req.False(registry.IsWaiting(waiter))
}

func TestSweeper_Tick_Expires_Abandoned_Reveal_Requests(t *testing.T) {
	req := require.New(t)
	start := time.Now()
	now := start
	registry, transport, reveal, sweeper := newSweeperWorld(t, func() time.Time {
		return now
	})

	// Given a pending reveal handshake between a fresh pair
	requester := domain.UserHandle(100)
	partner := domain.UserHandle(200)
	registry.TryEnqueueWaiting(requester, start)
	registry.TryPairWithWaiting(partner)
	transport.EXPECT().Send(gomock.Any(), partner, gomock.Any()).Return(nil)
	res := reveal.Request(context.Background(), requester)
	req.Equal(domain.RevealRequested, res.Status)
	req.Equal(1, reveal.PendingCount())

	// When a sweep runs before the TTL elapses, the handshake survives
	now = start.Add(time.Minute)
	sweeper.Tick(context.Background())
	req.Equal(1, reveal.PendingCount())

	// Then a sweep past the TTL drops it, even though the pair still chats
	now = start.Add(11 * time.Minute)
	sweeper.Tick(context.Background())
	req.Equal(0, reveal.PendingCount())
}

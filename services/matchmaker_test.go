package services

import (
	"anonchat/domain"
	"anonchat/mocks"
	"anonchat/runtime"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	alice domain.UserHandle = 100
	bob   domain.UserHandle = 200
	carol domain.UserHandle = 300
)

const deliveryTimeout = 100 * time.Millisecond

func TestMatchMaker_Connect_First_User_Waits(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	registry := runtime.NewRegistry()
	mm := NewMatchMaker(log, registry, transport, deliveryTimeout)

	// No one to notify: the connecting user's reply is rendered by the caller
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	res := mm.Connect(context.Background(), alice)

	req.Equal(domain.ConnectSearching, res.Status)
	req.True(registry.IsWaiting(alice))
	req.Contains(registry.KnownUsers(), alice)
}

func TestMatchMaker_Connect_Second_User_Pairs_And_Notifies_Waiter(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	registry := runtime.NewRegistry()
	mm := NewMatchMaker(log, registry, transport, deliveryTimeout)

	mm.Connect(context.Background(), alice)

	// The waiter gets the pairing notification; Bob's reply is the outcome
	transport.EXPECT().
		Send(gomock.Any(), alice, domain.TextMessage(MsgPartnerFound)).
		Return(nil).
		Times(1)

	res := mm.Connect(context.Background(), bob)

	req.Equal(domain.ConnectPaired, res.Status)
	req.Equal(alice, res.Partner)
	partner, ok := registry.PartnerOf(alice)
	req.True(ok)
	req.Equal(bob, partner)
	req.False(registry.IsWaiting(alice))
}

func TestMatchMaker_Connect_Waiter_Retry_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	registry := runtime.NewRegistry()
	mm := NewMatchMaker(log, registry, transport, deliveryTimeout)

	mm.Connect(context.Background(), alice)
	res := mm.Connect(context.Background(), alice)

	req.Equal(domain.ConnectAlreadyWaiting, res.Status)
	req.True(registry.IsWaiting(alice))
}

func TestMatchMaker_Connect_Paired_User_Is_Rejected(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Send(gomock.Any(), alice, gomock.Any()).Return(nil)
	registry := runtime.NewRegistry()
	mm := NewMatchMaker(log, registry, transport, deliveryTimeout)

	mm.Connect(context.Background(), alice)
	mm.Connect(context.Background(), bob)

	res := mm.Connect(context.Background(), bob)

	req.Equal(domain.ConnectAlreadyInChat, res.Status)
	// Carol is unaffected and becomes the new waiter
	res = mm.Connect(context.Background(), carol)
	req.Equal(domain.ConnectSearching, res.Status)
}

func TestMatchMaker_Connect_Pairing_Commits_Even_If_Notification_Fails(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	registry := runtime.NewRegistry()
	mm := NewMatchMaker(log, registry, transport, deliveryTimeout)

	mm.Connect(context.Background(), alice)

	transport.EXPECT().
		Send(gomock.Any(), alice, gomock.Any()).
		Return(fmt.Errorf("blocked by recipient"))

	res := mm.Connect(context.Background(), bob)

	// Local state committed before the best-effort notification
	req.Equal(domain.ConnectPaired, res.Status)
	_, ok := registry.PartnerOf(bob)
	req.True(ok)
}

func TestMatchMaker_Disconnect_Notifies_Partner(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	registry := runtime.NewRegistry()
	mm := NewMatchMaker(log, registry, transport, deliveryTimeout)

	transport.EXPECT().Send(gomock.Any(), alice, domain.TextMessage(MsgPartnerFound)).Return(nil)
	mm.Connect(context.Background(), alice)
	mm.Connect(context.Background(), bob)

	transport.EXPECT().Send(gomock.Any(), alice, domain.TextMessage(MsgPartnerLeft)).Return(nil)

	res := mm.Disconnect(context.Background(), bob)

	req.Equal(domain.Disconnected, res.Status)
	req.Equal(alice, res.Partner)
	_, ok := registry.PartnerOf(alice)
	req.False(ok)
}

func TestMatchMaker_Disconnect_Unreachable_Partner_Still_Clears_State(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	registry := runtime.NewRegistry()
	mm := NewMatchMaker(log, registry, transport, deliveryTimeout)

	transport.EXPECT().Send(gomock.Any(), alice, gomock.Any()).Return(nil)
	mm.Connect(context.Background(), alice)
	mm.Connect(context.Background(), bob)

	transport.EXPECT().
		Send(gomock.Any(), alice, gomock.Any()).
		Return(fmt.Errorf("chat deleted"))

	res := mm.Disconnect(context.Background(), bob)

	req.Equal(domain.Disconnected, res.Status)
	_, ok := registry.PartnerOf(bob)
	req.False(ok)
}

func TestMatchMaker_Disconnect_Without_Session(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	mm := NewMatchMaker(log, runtime.NewRegistry(), transport, deliveryTimeout)

	res := mm.Disconnect(context.Background(), alice)

	req.Equal(domain.DisconnectNotInChat, res.Status)
}

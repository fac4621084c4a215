package services

import (
	"anonchat/domain"
	"anonchat/errors"
	"anonchat/mocks"
	"anonchat/runtime"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const admin domain.UserHandle = 1

func TestBroadcast_Rejects_Non_Admin_Before_Fanout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	registry := runtime.NewRegistry()
	registry.Register(alice)

	b := NewBroadcast(log, registry, transport, admin, deliveryTimeout)
	_, err := b.Send(context.Background(), alice, "hello")

	req.ErrorIs(err, errors.ErrForbidden)
}

func TestBroadcast_Counts_Failures_Without_Aborting(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	registry := runtime.NewRegistry()
	registry.Register(alice)
	registry.Register(bob)
	registry.Register(carol)

	expected := domain.Message{Text: BroadcastPrefix + "maintenance at noon", Markdown: true}
	transport.EXPECT().Send(gomock.Any(), alice, expected).Return(nil)
	transport.EXPECT().Send(gomock.Any(), bob, expected).Return(fmt.Errorf("bot was blocked"))
	transport.EXPECT().Send(gomock.Any(), carol, expected).Return(nil)

	b := NewBroadcast(log, registry, transport, admin, deliveryTimeout)
	report, err := b.Send(context.Background(), admin, "maintenance at noon")

	req.NoError(err)
	req.Equal(2, report.Delivered)
	req.Equal(1, report.Failed)
}

func TestBroadcast_Empty_Membership(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	b := NewBroadcast(log, runtime.NewRegistry(), transport, admin, deliveryTimeout)
	report, err := b.Send(context.Background(), admin, "anyone?")

	req.NoError(err)
	req.Zero(report.Delivered)
	req.Zero(report.Failed)
}

package usecase_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	adapterRepo "github.com/2sipping0/pixelnextdigital/internal/adapter/repository"
	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	"github.com/2sipping0/pixelnextdigital/internal/domain/orderid"
	"github.com/2sipping0/pixelnextdigital/internal/domain/repository"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
	pkgErrors "github.com/2sipping0/pixelnextdigital/pkg/errors"
)

// MockOrderNotifier is a mock implementation of usecase.OrderNotifier
type MockOrderNotifier struct {
	mock.Mock
}

func (m *MockOrderNotifier) EmailConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockOrderNotifier) NotifyOrderPlaced(ctx context.Context, order *model.Order, paymentID string) error {
	return m.Called(ctx, order, paymentID).Error(0)
}

func newOrderService(orders repository.OrderRepository, notifier usecase.OrderNotifier) *usecase.OrderService {
	ids := orderid.NewGenerator(
		orderid.WithClock(func() time.Time { return time.Date(2026, 3, 1, 14, 7, 0, 0, time.UTC) }),
		orderid.WithSource(rand.NewSource(7)),
		orderid.WithLocation(time.UTC),
	)
	return usecase.NewOrderService(orders, catalog.Default(), ids, notifier, zap.NewNop())
}

func validDraft() *usecase.OrderDraft {
	return &usecase.OrderDraft{
		OrderID:        "PND-300000-1",
		OrderDate:      "March 1, 2026 at 2:07 PM",
		BusinessName:   "Acme Bakery",
		Email:          "owner@acme.test",
		Phone:          "555-0100",
		SocialMedia:    usecase.SocialMediaDraft{Instagram: "@acme"},
		WebsiteDetails: "Online menu and ordering",
		SelectedPlan:   "E-commerce",
		PaymentMethod:  "card",
		TotalAmount:    "$1",
	}
}

func TestOrderService_CreateDraft(t *testing.T) {
	orders := adapterRepo.NewMemoryOrderRepository()
	service := newOrderService(orders, new(MockOrderNotifier))
	ctx := context.Background()

	order, err := service.CreateDraft(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, "PND-300000-1", order.OrderID)
	assert.Equal(t, "$2,700", order.TotalAmount)
	assert.Equal(t, model.PaymentMethodCard, order.PaymentMethod)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	require.NotNil(t, order.SocialMedia)
	assert.Equal(t, "@acme", order.SocialMedia.Instagram)

	_, err = service.CreateDraft(ctx, validDraft())
	assert.Equal(t, pkgErrors.ErrConflict, pkgErrors.CodeOf(err))
}

func TestOrderService_CreateDraftAssignsIdentity(t *testing.T) {
	service := newOrderService(adapterRepo.NewMemoryOrderRepository(), new(MockOrderNotifier))

	draft := validDraft()
	draft.OrderID = ""
	draft.OrderDate = ""

	order, err := service.CreateDraft(context.Background(), draft)
	require.NoError(t, err)
	assert.Regexp(t, `^PND-\d{6}-\d{1,3}$`, order.OrderID)
	assert.Equal(t, "March 1, 2026 at 2:07 PM", order.OrderDate)
}

func TestOrderService_CreateDraftValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *usecase.OrderDraft)
		field  string
	}{
		{name: "unknown plan", mutate: func(d *usecase.OrderDraft) { d.SelectedPlan = "Enterprise" }, field: "selectedPlan"},
		{name: "bad email", mutate: func(d *usecase.OrderDraft) { d.Email = "not-an-email" }, field: "email"},
		{name: "missing business", mutate: func(d *usecase.OrderDraft) { d.BusinessName = "" }, field: "businessName"},
		{name: "bad method", mutate: func(d *usecase.OrderDraft) { d.PaymentMethod = "paypal" }, field: "paymentMethod"},
	}

	service := newOrderService(adapterRepo.NewMemoryOrderRepository(), new(MockOrderNotifier))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(draft)

			_, err := service.CreateDraft(context.Background(), draft)
			require.Error(t, err)
			assert.Equal(t, pkgErrors.ErrInvalidArgument, pkgErrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestOrderService_Confirm(t *testing.T) {
	t.Run("stores missing order and notifies", func(t *testing.T) {
		orders := adapterRepo.NewMemoryOrderRepository()
		notifier := new(MockOrderNotifier)
		notifier.On("EmailConfigured").Return(true)
		notifier.On("NotifyOrderPlaced", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
			return o.OrderID == "PND-300000-1" && o.ID != 0
		}), "pi_9").Return(nil).Once()

		result, err := newOrderService(orders, notifier).Confirm(context.Background(), validDraft(), "pi_9")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPending, result.Status)

		_, err = orders.GetByOrderID(context.Background(), "PND-300000-1")
		assert.NoError(t, err)
		notifier.AssertExpectations(t)
	})

	t.Run("reports the stored status", func(t *testing.T) {
		orders := adapterRepo.NewMemoryOrderRepository()
		service := newOrderService(orders, nil)
		_, err := service.CreateDraft(context.Background(), validDraft())
		require.NoError(t, err)
		_, err = orders.UpdateStatus(context.Background(), "PND-300000-1", model.OrderStatusPaid)
		require.NoError(t, err)

		notifier := new(MockOrderNotifier)
		notifier.On("EmailConfigured").Return(true)
		notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything, "pi_9").Return(nil)

		result, err := newOrderService(orders, notifier).Confirm(context.Background(), validDraft(), "pi_9")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaid, result.Status)
	})

	t.Run("persistence failure does not block the emails", func(t *testing.T) {
		notifier := new(MockOrderNotifier)
		notifier.On("EmailConfigured").Return(true)
		notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything, "pi_9").Return(nil).Once()

		store := adapterRepo.NewUnconfiguredOrderRepository("database", "host")
		result, err := newOrderService(store, notifier).Confirm(context.Background(), validDraft(), "pi_9")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPending, result.Status)
		notifier.AssertExpectations(t)
	})

	t.Run("email not configured", func(t *testing.T) {
		notifier := new(MockOrderNotifier)
		notifier.On("EmailConfigured").Return(false)

		_, err := newOrderService(adapterRepo.NewMemoryOrderRepository(), notifier).Confirm(context.Background(), validDraft(), "pi_9")
		assert.ErrorIs(t, err, usecase.ErrEmailNotConfigured)
	})

	t.Run("customer email failure", func(t *testing.T) {
		notifier := new(MockOrderNotifier)
		notifier.On("EmailConfigured").Return(true)
		notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything, "pi_9").Return(errors.New("resend: 422"))

		_, err := newOrderService(adapterRepo.NewMemoryOrderRepository(), notifier).Confirm(context.Background(), validDraft(), "pi_9")
		assert.Equal(t, pkgErrors.ErrUpstream, pkgErrors.CodeOf(err))
	})
}

func TestOrderService_RecordOptimisticPayment(t *testing.T) {
	orders := adapterRepo.NewMemoryOrderRepository()
	service := newOrderService(orders, nil)
	ctx := context.Background()

	input := &usecase.PaymentRecordInput{
		OrderID:       "PND-300000-1",
		PaymentMethod: "card",
		PaymentID:     "pi_7",
		Amount:        "2700.00",
		Currency:      "usd",
		Status:        "succeeded",
		Metadata:      model.CardMeta("pi_7", "pm_7"),
	}
	payment, err := service.RecordOptimisticPayment(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentMethodCard, payment.PaymentMethod)

	// A client cannot move the record backwards.
	input.Status = "pending"
	payment, err = service.RecordOptimisticPayment(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSucceeded, payment.Status)

	payments, _ := orders.ListPayments(ctx, "PND-300000-1")
	assert.Len(t, payments, 1)

	for _, bad := range []func(*usecase.PaymentRecordInput){
		func(p *usecase.PaymentRecordInput) { p.Status = "confirmed" },
		func(p *usecase.PaymentRecordInput) { p.Status = "failed" },
		func(p *usecase.PaymentRecordInput) { p.Amount = "12.345" },
		func(p *usecase.PaymentRecordInput) { p.Amount = "-1.00" },
		func(p *usecase.PaymentRecordInput) { p.PaymentID = "" },
	} {
		copied := *input
		bad(&copied)
		_, err := service.RecordOptimisticPayment(ctx, &copied)
		assert.Equal(t, pkgErrors.ErrInvalidArgument, pkgErrors.CodeOf(err))
	}
}

func TestOrderService_Get(t *testing.T) {
	orders := adapterRepo.NewMemoryOrderRepository()
	service := newOrderService(orders, nil)
	ctx := context.Background()

	_, err := service.Get(ctx, "PND-missing")
	assert.Equal(t, pkgErrors.ErrNotFound, pkgErrors.CodeOf(err))

	_, err = service.CreateDraft(ctx, validDraft())
	require.NoError(t, err)

	detail, err := service.Get(ctx, "PND-300000-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Bakery", detail.Order.BusinessName)
	assert.NotNil(t, detail.Payments)
	assert.Empty(t, detail.Payments)

	_, err = newOrderService(adapterRepo.NewUnconfiguredOrderRepository("supabase", "url"), nil).List(ctx)
	assert.Equal(t, pkgErrors.ErrConfigMissing, pkgErrors.CodeOf(err))
}

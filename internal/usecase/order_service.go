package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	"github.com/2sipping0/pixelnextdigital/internal/domain/orderid"
	"github.com/2sipping0/pixelnextdigital/internal/domain/repository"
	pkgErrors "github.com/2sipping0/pixelnextdigital/pkg/errors"
)

// SocialMediaDraft holds the optional social handles of a draft
type SocialMediaDraft struct {
	Facebook  string `json:"facebook" validate:"max=255"`
	Instagram string `json:"instagram" validate:"max=255"`
	Twitter   string `json:"twitter" validate:"max=255"`
}

// OrderDraft is an order as submitted by the storefront
type OrderDraft struct {
	OrderID        string           `json:"orderId" validate:"omitempty,max=32"`
	OrderDate      string           `json:"orderDate" validate:"max=64"`
	BusinessName   string           `json:"businessName" validate:"required,max=255"`
	Email          string           `json:"email" validate:"required,email,max=255"`
	Phone          string           `json:"phone" validate:"required,max=64"`
	SocialMedia    SocialMediaDraft `json:"socialMedia"`
	WebsiteDetails string           `json:"websiteDetails"`
	SelectedPlan   string           `json:"selectedPlan" validate:"required,plan"`
	PaymentMethod  string           `json:"paymentMethod" validate:"required,oneof=card crypto stripe"`
	// TotalAmount is accepted for compatibility and replaced by the catalog price.
	TotalAmount string `json:"totalAmount"`
}

// PaymentRecordInput is an optimistic payment record written by a client
type PaymentRecordInput struct {
	OrderID       string         `json:"orderId" validate:"required,max=32"`
	PaymentMethod string         `json:"paymentMethod" validate:"required,oneof=card crypto stripe"`
	PaymentID     string         `json:"paymentId" validate:"required,max=255"`
	Amount        string         `json:"amount" validate:"required,decimal_amount"`
	Currency      string         `json:"currency" validate:"required,max=8"`
	Status        string         `json:"status" validate:"required,oneof=pending succeeded"`
	Metadata      model.Metadata `json:"metadata"`
}

// OrderDetail is an order with its payment records
type OrderDetail struct {
	Order    *model.Order     `json:"order"`
	Payments []*model.Payment `json:"payments"`
}

// OrderConfirmation is the result of Confirm
type OrderConfirmation struct {
	OrderID string            `json:"orderId"`
	Status  model.OrderStatus `json:"status"`
}

// OrderNotifier is what order confirmation needs from NotificationService
type OrderNotifier interface {
	EmailConfigured() bool
	NotifyOrderPlaced(ctx context.Context, order *model.Order, paymentID string) error
}

type OrderService struct {
	orders   repository.OrderRepository
	catalog  *catalog.Catalog
	ids      *orderid.Generator
	notifier OrderNotifier
	validate *validator.Validate
	logger   *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	plans *catalog.Catalog,
	ids *orderid.Generator,
	notifier OrderNotifier,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		catalog:  plans,
		ids:      ids,
		notifier: notifier,
		validate: NewValidator(plans),
		logger:   logger,
	}
}

// NewValidator returns a validator that also knows the plan catalog
// ("plan") and two-decimal amounts ("decimal_amount").
func NewValidator(plans *catalog.Catalog) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
		_, err := plans.Lookup(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("decimal_amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative() && d.Exponent() >= -2
	})
	return v
}

// NewIdentity assigns an order number and display date
func (s *OrderService) NewIdentity() orderid.Identity {
	return s.ids.New()
}

// CreateDraft validates a draft and stores it as a pending order
func (s *OrderService) CreateDraft(ctx context.Context, draft *OrderDraft) (*model.Order, error) {
	order, err := s.buildOrder(draft)
	if err != nil {
		return nil, err
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderExists) {
			return nil, pkgErrors.NewAppError(pkgErrors.ErrConflict, "Order already exists", err)
		}
		return nil, storeAppError(err, "Failed to create order")
	}

	s.logger.Info("Order created",
		zap.String("order_id", created.OrderID),
		zap.String("plan", created.SelectedPlan),
		zap.String("payment_method", string(created.PaymentMethod)))
	return created, nil
}

func (s *OrderService) buildOrder(draft *OrderDraft) (*model.Order, error) {
	if err := s.validate.Struct(draft); err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, validationMessage(err), err)
	}

	plan, err := s.catalog.Lookup(draft.SelectedPlan)
	if err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Invalid plan", err)
	}
	method, err := model.ParsePaymentMethod(draft.PaymentMethod)
	if err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Invalid payment method", err)
	}

	if draft.OrderID == "" {
		identity := s.ids.New()
		draft.OrderID = identity.OrderID
		if draft.OrderDate == "" {
			draft.OrderDate = identity.OrderDate
		}
	}

	order := &model.Order{
		OrderID:        draft.OrderID,
		BusinessName:   strings.TrimSpace(draft.BusinessName),
		Email:          strings.TrimSpace(draft.Email),
		Phone:          strings.TrimSpace(draft.Phone),
		WebsiteDetails: draft.WebsiteDetails,
		SelectedPlan:   plan.Name,
		PaymentMethod:  method,
		OrderDate:      draft.OrderDate,
		TotalAmount:    plan.Display,
		Status:         model.OrderStatusPending,
	}
	social := &model.SocialMedia{
		Facebook:  draft.SocialMedia.Facebook,
		Instagram: draft.SocialMedia.Instagram,
		Twitter:   draft.SocialMedia.Twitter,
	}
	if !social.Empty() {
		order.SocialMedia = social
	}
	return order, nil
}

// Confirm is the client-side success path: store the order if it is not
// stored yet, then send the admin alert and customer confirmation for
// paymentID. Persistence failures are logged and do not stop the emails.
func (s *OrderService) Confirm(ctx context.Context, draft *OrderDraft, paymentID string) (*OrderConfirmation, error) {
	if !s.notifier.EmailConfigured() {
		return nil, ErrEmailNotConfigured
	}

	order, err := s.buildOrder(draft)
	if err != nil {
		return nil, err
	}

	stored, err := s.orders.GetByOrderID(ctx, order.OrderID)
	switch {
	case err == nil:
		order = stored
	case errors.Is(err, domainErrors.ErrOrderNotFound):
		created, createErr := s.orders.Create(ctx, order)
		switch {
		case createErr == nil:
			order = created
		case errors.Is(createErr, domainErrors.ErrOrderExists):
			if again, getErr := s.orders.GetByOrderID(ctx, order.OrderID); getErr == nil {
				order = again
			}
		default:
			s.logger.Error("Failed to save order during confirmation",
				zap.String("order_id", order.OrderID),
				zap.Error(createErr))
		}
	default:
		s.logger.Error("Failed to load order during confirmation",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}

	if err := s.notifier.NotifyOrderPlaced(ctx, order, paymentID); err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.ErrUpstream, "Failed to send confirmation email", err)
	}

	return &OrderConfirmation{OrderID: order.OrderID, Status: order.Status}, nil
}

// RecordOptimisticPayment stores a client-reported payment. Clients may only
// report pending or succeeded; webhooks remain authoritative.
func (s *OrderService) RecordOptimisticPayment(ctx context.Context, input *PaymentRecordInput) (*model.Payment, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, validationMessage(err), err)
	}
	method, err := model.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Invalid payment method", err)
	}

	payment, err := s.orders.RecordPayment(ctx, &model.Payment{
		OrderID:       input.OrderID,
		PaymentMethod: method,
		PaymentID:     input.PaymentID,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Status:        model.PaymentStatus(input.Status),
		Metadata:      input.Metadata,
	})
	if err != nil {
		return nil, storeAppError(err, "Failed to record payment")
	}

	s.logger.Info("Payment recorded",
		zap.String("order_id", payment.OrderID),
		zap.String("payment_id", payment.PaymentID),
		zap.String("status", string(payment.Status)))
	return payment, nil
}

func (s *OrderService) List(ctx context.Context) ([]*model.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, storeAppError(err, "Failed to list orders")
	}
	if orders == nil {
		orders = []*model.Order{}
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, orderID string) (*OrderDetail, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return nil, pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Order not found", err)
		}
		return nil, storeAppError(err, "Failed to load order")
	}

	payments, err := s.orders.ListPayments(ctx, orderID)
	if err != nil {
		return nil, storeAppError(err, "Failed to load payments")
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	return &OrderDetail{Order: order, Payments: payments}, nil
}

func storeAppError(err error, message string) error {
	if errors.Is(err, domainErrors.ErrConfigMissing) {
		return pkgErrors.NewAppError(pkgErrors.ErrConfigMissing, "Persistence is not configured", err)
	}
	return pkgErrors.NewAppError(pkgErrors.ErrInternal, message, err)
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid request"
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "Invalid fields: " + strings.Join(fields, ", ")
}

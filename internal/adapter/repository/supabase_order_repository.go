package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	domainRepo "github.com/2sipping0/pixelnextdigital/internal/domain/repository"
)

const (
	preferRepresentation   = "return=representation"
	preferIgnoreDuplicates = "return=representation,resolution=ignore-duplicates"
	orderSelect            = "*,social_media(*)"
)

// SupabaseOrderRepository implements OrderRepository using the Supabase REST API.
// Writes are sequential calls; the order insert and the social media insert
// are not atomic.
type SupabaseOrderRepository struct {
	rest   *supabaseREST
	logger *zap.Logger
}

// NewSupabaseOrderRepository creates a new Supabase order repository
func NewSupabaseOrderRepository(baseURL, apiKey string, logger *zap.Logger) *SupabaseOrderRepository {
	return &SupabaseOrderRepository{
		rest:   newSupabaseREST(baseURL, apiKey, logger),
		logger: logger,
	}
}

type orderInsert struct {
	OrderID        string              `json:"order_id"`
	BusinessName   string              `json:"business_name"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone"`
	WebsiteDetails string              `json:"website_details"`
	SelectedPlan   string              `json:"selected_plan"`
	PaymentMethod  model.PaymentMethod `json:"payment_method"`
	OrderDate      string              `json:"order_date"`
	TotalAmount    string              `json:"total_amount"`
	Status         model.OrderStatus   `json:"status"`
}

type socialInsert struct {
	OrderRowID int64  `json:"order_id"`
	Facebook   string `json:"facebook"`
	Instagram  string `json:"instagram"`
	Twitter    string `json:"twitter"`
}

// orderRow is an orders row with its embedded social_media relation, which
// PostgREST returns as an object or a one-element array depending on the
// detected cardinality.
type orderRow struct {
	model.Order
	SocialMedia json.RawMessage `json:"social_media,omitempty"`
}

func (row *orderRow) toModel() (*model.Order, error) {
	order := row.Order
	order.SocialMedia = nil

	raw := strings.TrimSpace(string(row.SocialMedia))
	switch {
	case raw == "" || raw == "null" || raw == "[]":
	case strings.HasPrefix(raw, "["):
		var socials []model.SocialMedia
		if err := json.Unmarshal(row.SocialMedia, &socials); err != nil {
			return nil, err
		}
		order.SocialMedia = &socials[0]
	default:
		var social model.SocialMedia
		if err := json.Unmarshal(row.SocialMedia, &social); err != nil {
			return nil, err
		}
		order.SocialMedia = &social
	}
	return &order, nil
}

func (r *SupabaseOrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order.Status == "" {
		order.Status = model.OrderStatusPending
	}

	var created []model.Order
	err := r.rest.do(ctx, "POST", "orders", nil, orderInsert{
		OrderID:        order.OrderID,
		BusinessName:   order.BusinessName,
		Email:          order.Email,
		Phone:          order.Phone,
		WebsiteDetails: order.WebsiteDetails,
		SelectedPlan:   order.SelectedPlan,
		PaymentMethod:  order.PaymentMethod,
		OrderDate:      order.OrderDate,
		TotalAmount:    order.TotalAmount,
		Status:         order.Status,
	}, preferRepresentation, &created)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, storeError("insert order", errors.New("empty representation"))
	}

	stored := created[0]
	social := order.SocialMedia
	if !social.Empty() {
		var createdSocial []model.SocialMedia
		err := r.rest.do(ctx, "POST", "social_media", nil, socialInsert{
			OrderRowID: stored.ID,
			Facebook:   social.Facebook,
			Instagram:  social.Instagram,
			Twitter:    social.Twitter,
		}, preferRepresentation, &createdSocial)
		if err != nil {
			// The order row stays; social handles are optional.
			r.logger.Error("Failed to save social media",
				zap.String("order_id", order.OrderID),
				zap.Error(err))
		} else if len(createdSocial) > 0 {
			stored.SocialMedia = &createdSocial[0]
		}
	}

	return &stored, nil
}

func (r *SupabaseOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var rows []orderRow
	query := url.Values{}
	query.Set("order_id", eq(orderID))
	query.Set("select", orderSelect)

	if err := r.rest.do(ctx, "GET", "orders", query, nil, "", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrOrderNotFound, orderID)
	}
	return rows[0].toModel()
}

func (r *SupabaseOrderRepository) List(ctx context.Context) ([]*model.Order, error) {
	var rows []orderRow
	query := url.Values{}
	query.Set("select", orderSelect)
	query.Set("order", "created_at.desc,id.desc")

	if err := r.rest.do(ctx, "GET", "orders", query, nil, "", &rows); err != nil {
		return nil, err
	}

	orders := make([]*model.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toModel()
		if err != nil {
			return nil, storeError("decode order", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// UpdateStatus patches only while the row is still pending, so concurrent
// writers cannot move a terminal order.
func (r *SupabaseOrderRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	order, _, err := r.transition(ctx, orderID, status)
	return order, err
}

func (r *SupabaseOrderRepository) transition(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		order, err := r.GetByOrderID(ctx, orderID)
		if err != nil {
			return nil, false, err
		}
		from := order.Status

		changed, err := order.TransitionTo(status)
		if err != nil || !changed {
			return order, false, err
		}

		var updated []model.Order
		query := url.Values{}
		query.Set("order_id", eq(orderID))
		query.Set("status", eq(string(from)))
		err = r.rest.do(ctx, "PATCH", "orders", query, map[string]interface{}{"status": status}, preferRepresentation, &updated)
		if err != nil {
			return nil, false, err
		}
		if len(updated) > 0 {
			r.logger.Info("Order status updated",
				zap.String("order_id", orderID),
				zap.String("status", string(status)))
			order.Status = updated[0].Status
			return order, true, nil
		}
		// Status changed underneath us; evaluate again against the new value.
	}
	return nil, false, storeError("update order status", errors.New("concurrent modification"))
}

func (r *SupabaseOrderRepository) RecordPayment(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	stored, _, err := r.upsertPayment(ctx, payment)
	return stored, err
}

func (r *SupabaseOrderRepository) findPayment(ctx context.Context, method model.PaymentMethod, paymentID string) (*model.Payment, error) {
	var rows []model.Payment
	query := url.Values{}
	query.Set("payment_method", eq(string(method)))
	query.Set("payment_id", eq(paymentID))

	if err := r.rest.do(ctx, "GET", "payments", query, nil, "", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

type paymentInsert struct {
	OrderID       string              `json:"order_id"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	PaymentID     string              `json:"payment_id"`
	Amount        string              `json:"amount"`
	Currency      string              `json:"currency"`
	Status        model.PaymentStatus `json:"status"`
	Metadata      model.Metadata      `json:"metadata"`
	Verified      bool                `json:"verified"`
}

func (r *SupabaseOrderRepository) upsertPayment(ctx context.Context, payment *model.Payment) (*model.Payment, bool, error) {
	existing, err := r.findPayment(ctx, payment.PaymentMethod, payment.PaymentID)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		var created []model.Payment
		query := url.Values{}
		query.Set("on_conflict", "payment_method,payment_id")
		err := r.rest.do(ctx, "POST", "payments", query, paymentInsert{
			OrderID:       payment.OrderID,
			PaymentMethod: payment.PaymentMethod,
			PaymentID:     payment.PaymentID,
			Amount:        payment.Amount,
			Currency:      payment.Currency,
			Status:        payment.Status,
			Metadata:      payment.Metadata,
			Verified:      payment.Verified,
		}, preferIgnoreDuplicates, &created)
		if err != nil {
			return nil, false, err
		}
		if len(created) > 0 {
			return &created[0], true, nil
		}
		if existing, err = r.findPayment(ctx, payment.PaymentMethod, payment.PaymentID); err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, storeError("insert payment", errors.New("row neither inserted nor found"))
		}
	}

	if !existing.MergeFrom(payment) {
		return existing, false, nil
	}

	var updated []model.Payment
	query := url.Values{}
	query.Set("id", eq(strconv.FormatInt(existing.ID, 10)))
	err = r.rest.do(ctx, "PATCH", "payments", query, map[string]interface{}{
		"order_id":   existing.OrderID,
		"amount":     existing.Amount,
		"currency":   existing.Currency,
		"status":     existing.Status,
		"metadata":   existing.Metadata,
		"verified":   existing.Verified,
		"updated_at": time.Now().UTC(),
	}, preferRepresentation, &updated)
	if err != nil {
		return nil, false, err
	}
	if len(updated) > 0 {
		return &updated[0], true, nil
	}
	return existing, true, nil
}

func (r *SupabaseOrderRepository) ListPayments(ctx context.Context, orderID string) ([]*model.Payment, error) {
	var rows []*model.Payment
	query := url.Values{}
	query.Set("order_id", eq(orderID))
	query.Set("order", "created_at.asc")

	if err := r.rest.do(ctx, "GET", "payments", query, nil, "", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Settle runs the status change and the payment write back to back.
func (r *SupabaseOrderRepository) Settle(ctx context.Context, orderID string, status model.OrderStatus, payment *model.Payment) (*domainRepo.Settlement, error) {
	settlement := &domainRepo.Settlement{}

	order, changed, rejected := r.transition(ctx, orderID, status)
	if rejected != nil && !errors.Is(rejected, domainErrors.ErrOrderNotFound) && !errors.Is(rejected, domainErrors.ErrInvalidTransition) {
		return nil, rejected
	}
	if rejected == nil {
		settlement.Order = order
		settlement.StatusChanged = changed
	}

	if payment != nil {
		stored, paymentChanged, err := r.upsertPayment(ctx, payment)
		if err != nil {
			return nil, err
		}
		settlement.Payment = stored
		settlement.PaymentChanged = paymentChanged
	}
	return settlement, rejected
}

// SupabaseWebhookEventRepository keeps the webhook log in the webhook_events table
type SupabaseWebhookEventRepository struct {
	rest *supabaseREST
}

func NewSupabaseWebhookEventRepository(baseURL, apiKey string, logger *zap.Logger) *SupabaseWebhookEventRepository {
	return &SupabaseWebhookEventRepository{rest: newSupabaseREST(baseURL, apiKey, logger)}
}

func (r *SupabaseWebhookEventRepository) Claim(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	var created []model.WebhookEvent
	query := url.Values{}
	query.Set("on_conflict", "provider,event_id")
	err := r.rest.do(ctx, "POST", "webhook_events", query, map[string]interface{}{
		"provider":   event.Provider,
		"event_id":   event.EventID,
		"event_type": event.EventType,
		"order_id":   event.OrderID,
		"status":     model.WebhookStatusProcessing,
	}, preferIgnoreDuplicates, &created)
	if err != nil {
		return false, err
	}
	if len(created) > 0 {
		return true, nil
	}

	var existing []model.WebhookEvent
	lookup := url.Values{}
	lookup.Set("provider", eq(string(event.Provider)))
	lookup.Set("event_id", eq(event.EventID))
	if err := r.rest.do(ctx, "GET", "webhook_events", lookup, nil, "", &existing); err != nil {
		return false, err
	}
	if len(existing) == 0 {
		return true, nil
	}
	return reprocessable(existing[0].Status), nil
}

func (r *SupabaseWebhookEventRepository) Finish(ctx context.Context, provider model.WebhookProvider, eventID string, status model.WebhookStatus, cause error) error {
	updates := map[string]interface{}{
		"status":       status,
		"processed_at": time.Now().UTC(),
	}
	if cause != nil {
		updates["last_error"] = cause.Error()
	}

	query := url.Values{}
	query.Set("provider", eq(string(provider)))
	query.Set("event_id", eq(eventID))
	return r.rest.do(ctx, "PATCH", "webhook_events", query, updates, "", nil)
}

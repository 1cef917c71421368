package repository

import (
	"context"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	domainRepo "github.com/2sipping0/pixelnextdigital/internal/domain/repository"
)

// UnconfiguredOrderRepository stands in when persistence settings are
// missing; every call fails with ErrConfigMissing so callers can tell a
// misconfigured deployment from a failing one.
type UnconfiguredOrderRepository struct {
	err error
}

func NewUnconfiguredOrderRepository(component, setting string) *UnconfiguredOrderRepository {
	return &UnconfiguredOrderRepository{err: &domainErrors.ConfigMissingError{Component: component, Setting: setting}}
}

func (r *UnconfiguredOrderRepository) Create(context.Context, *model.Order) (*model.Order, error) {
	return nil, r.err
}

func (r *UnconfiguredOrderRepository) GetByOrderID(context.Context, string) (*model.Order, error) {
	return nil, r.err
}

func (r *UnconfiguredOrderRepository) List(context.Context) ([]*model.Order, error) {
	return nil, r.err
}

func (r *UnconfiguredOrderRepository) UpdateStatus(context.Context, string, model.OrderStatus) (*model.Order, error) {
	return nil, r.err
}

func (r *UnconfiguredOrderRepository) RecordPayment(context.Context, *model.Payment) (*model.Payment, error) {
	return nil, r.err
}

func (r *UnconfiguredOrderRepository) ListPayments(context.Context, string) ([]*model.Payment, error) {
	return nil, r.err
}

func (r *UnconfiguredOrderRepository) Settle(context.Context, string, model.OrderStatus, *model.Payment) (*domainRepo.Settlement, error) {
	return nil, r.err
}

// Claim lets webhook processing go ahead; the order store reports the
// configuration problem.
func (r *UnconfiguredOrderRepository) Claim(context.Context, *model.WebhookEvent) (bool, error) {
	return true, nil
}

func (r *UnconfiguredOrderRepository) Finish(context.Context, model.WebhookProvider, string, model.WebhookStatus, error) error {
	return nil
}

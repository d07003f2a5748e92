package service

import (
	"context"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/errs"
	"github.com/meditrade/storefront/internal/model"
)

// Orders covers order listing, detail, creation from a cart, and cancellation.
type Orders struct {
	api Doer
	ep  api.Endpoints
}

func NewOrders(api Doer, ep api.Endpoints) *Orders {
	return &Orders{api: api, ep: ep}
}

func (o *Orders) List(ctx context.Context) ([]model.Order, error) {
	return getList[model.Order](ctx, o.api, o.ep.Orders())
}

func (o *Orders) Get(ctx context.Context, id int64) (*model.Order, error) {
	var out model.Order
	if err := o.api.Get(ctx, o.ep.Order(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrderInput references the cart and optionally a discount code.
type CreateOrderInput struct {
	CartID       int64  `json:"cart_id"`
	DiscountCode string `json:"discount_code,omitempty"`
}

// Create turns a cart into an order.
func (o *Orders) Create(ctx context.Context, in CreateOrderInput, opts ...api.ReqOption) (*model.Order, error) {
	var out model.Order
	if err := o.api.Post(ctx, o.ep.Orders(), in, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel requests cancellation. Orders past pending are rejected locally
// before any request goes out; the server enforces the same rule.
func (o *Orders) Cancel(ctx context.Context, order *model.Order) (*model.Order, error) {
	if !order.Status.Cancellable() {
		return nil, errs.ErrNotCancellable
	}
	var out model.Order
	if err := o.api.Post(ctx, o.ep.OrderCancel(order.ID), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *Orders) Delete(ctx context.Context, id int64) error {
	return o.api.Delete(ctx, o.ep.Order(id), nil)
}

package service

import (
	"context"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Carts covers cart fetch/create and item mutations. Every mutation returns
// the server's authoritative snapshot; callers replace local state with it
// and never merge.
type Carts struct {
	api Doer
	ep  api.Endpoints
}

func NewCarts(api Doer, ep api.Endpoints) *Carts {
	return &Carts{api: api, ep: ep}
}

// List returns the caller's carts (the backend keeps at most one active).
func (c *Carts) List(ctx context.Context) ([]model.Cart, error) {
	return getList[model.Cart](ctx, c.api, c.ep.Carts())
}

// Create makes a new empty cart.
func (c *Carts) Create(ctx context.Context) (*model.Cart, error) {
	var out model.Cart
	if err := c.api.Post(ctx, c.ep.Carts(), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrCreate returns the active cart, lazily creating one on first access.
func (c *Carts) GetOrCreate(ctx context.Context) (*model.Cart, error) {
	carts, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(carts) > 0 {
		cart := carts[0]
		return &cart, nil
	}
	return c.Create(ctx)
}

type cartItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// AddItem sets the absolute target quantity for a product line. The backend
// upserts the line; the returned snapshot replaces local state.
func (c *Carts) AddItem(ctx context.Context, cartID, productID int64, quantity int, opts ...api.ReqOption) (*model.Cart, error) {
	var out model.Cart
	err := c.api.Post(ctx, c.ep.CartAddItem(cartID), cartItemInput{ProductID: productID, Quantity: quantity}, &out, opts...)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveItem deletes a product line from the cart.
func (c *Carts) RemoveItem(ctx context.Context, cartID, productID int64, opts ...api.ReqOption) (*model.Cart, error) {
	var out model.Cart
	in := struct {
		ProductID int64 `json:"product_id"`
	}{productID}
	if err := c.api.Post(ctx, c.ep.CartRemoveItem(cartID), in, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// Checkout converts the cart into an order in one call.
func (c *Carts) Checkout(ctx context.Context, cartID int64, discountCode string, opts ...api.ReqOption) (*model.Order, error) {
	var out model.Order
	in := struct {
		DiscountCode string `json:"discount_code,omitempty"`
	}{discountCode}
	if err := c.api.Post(ctx, c.ep.CartCheckout(cartID), in, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

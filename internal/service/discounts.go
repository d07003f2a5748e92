package service

import (
	"context"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Discounts lists promo codes and applies them to a cart. The server computes
// the discount amount; the client never validates codes locally.
type Discounts struct {
	api Doer
	ep  api.Endpoints
}

func NewDiscounts(api Doer, ep api.Endpoints) *Discounts {
	return &Discounts{api: api, ep: ep}
}

func (d *Discounts) List(ctx context.Context) ([]model.Discount, error) {
	return getList[model.Discount](ctx, d.api, d.ep.Discounts())
}

// Apply keys the code to a cart and returns the server-computed amount.
func (d *Discounts) Apply(ctx context.Context, cartID int64, code string) (float64, error) {
	in := struct {
		CartID int64  `json:"cart_id"`
		Code   string `json:"code"`
	}{cartID, code}
	var out struct {
		DiscountAmount float64 `json:"discount_amount"`
	}
	if err := d.api.Post(ctx, d.ep.DiscountApply(), in, &out); err != nil {
		return 0, err
	}
	return out.DiscountAmount, nil
}

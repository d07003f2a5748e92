package service

import (
	"context"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Payments covers Stripe session creation and the completion callbacks the
// embedded payment page redirects to.
type Payments struct {
	api Doer
	ep  api.Endpoints
}

func NewPayments(api Doer, ep api.Endpoints) *Payments {
	return &Payments{api: api, ep: ep}
}

// CreateSession opens a hosted checkout session for an order.
func (p *Payments) CreateSession(ctx context.Context, orderID int64, opts ...api.ReqOption) (*model.PaymentSession, error) {
	in := struct {
		OrderID int64 `json:"order_id"`
	}{orderID}
	var out model.PaymentSession
	if err := p.api.Post(ctx, p.ep.CreateStripePayment(), in, &out, opts...); err != nil {
		return nil, err
	}
	if out.CheckoutURL == "" && out.SessionID != "" {
		// Session id only: the hosted page lives at Stripe's checkout host.
		out.CheckoutURL = "https://checkout.stripe.com/pay/" + out.SessionID
	}
	return &out, nil
}

// ConfirmSuccess reports a success redirect back to the backend.
func (p *Payments) ConfirmSuccess(ctx context.Context, sessionID string) error {
	return p.api.Get(ctx, p.ep.PaymentSuccess(sessionID), nil)
}

// ConfirmCancel reports a cancel redirect back to the backend.
func (p *Payments) ConfirmCancel(ctx context.Context, sessionID string) error {
	return p.api.Get(ctx, p.ep.PaymentCancel(sessionID), nil)
}

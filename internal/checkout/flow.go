// Package checkout drives the client side of cart-to-payment: cart
// reconciliation, discount application, order creation, and payment
// completion with bounded callback polling.
//
// The server is authoritative throughout: every cart mutation replaces local
// state with the returned snapshot, and the displayed total is recomputed
// from that snapshot, never accumulated locally.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/errs"
	"github.com/meditrade/storefront/internal/model"
	"github.com/meditrade/storefront/internal/service"
)

// Stage is the checkout progression. Transitions only move forward within one
// Flow; a new attempt starts a new Flow.
type Stage int

const (
	StageIdle Stage = iota
	StageCartLoaded
	StageOrderCreated
	StageSessionCreated
	StagePaymentPending
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageCartLoaded:
		return "cart_loaded"
	case StageOrderCreated:
		return "order_created"
	case StageSessionCreated:
		return "session_created"
	case StagePaymentPending:
		return "payment_pending"
	case StageDone:
		return "done"
	default:
		return "idle"
	}
}

// CartService is the cart slice of the API the flow needs.
type CartService interface {
	GetOrCreate(ctx context.Context) (*model.Cart, error)
	AddItem(ctx context.Context, cartID, productID int64, quantity int, opts ...api.ReqOption) (*model.Cart, error)
	RemoveItem(ctx context.Context, cartID, productID int64, opts ...api.ReqOption) (*model.Cart, error)
}

// DiscountService applies promo codes server-side.
type DiscountService interface {
	Apply(ctx context.Context, cartID int64, code string) (float64, error)
}

// OrderService creates orders from carts.
type OrderService interface {
	Create(ctx context.Context, in service.CreateOrderInput, opts ...api.ReqOption) (*model.Order, error)
}

// PaymentService opens sessions and reports completion redirects.
type PaymentService interface {
	CreateSession(ctx context.Context, orderID int64, opts ...api.ReqOption) (*model.PaymentSession, error)
	ConfirmSuccess(ctx context.Context, sessionID string) error
	ConfirmCancel(ctx context.Context, sessionID string) error
}

// Flow is one checkout attempt. Safe for use from a single goroutine plus the
// in-flight guard against rapid duplicate submissions of the same mutation.
type Flow struct {
	carts     CartService
	discounts DiscountService
	orders    OrderService
	payments  PaymentService
	log       *zap.Logger

	// pollDelay separates payment-callback retries; overridable in tests.
	pollDelay time.Duration

	mu             sync.Mutex
	stage          Stage
	cart           *model.Cart
	discountCode   string
	discountAmount float64
	order          *model.Order
	session        *model.PaymentSession
	inflight       map[string]struct{}
}

// New builds an idle Flow.
func New(carts CartService, discounts DiscountService, orders OrderService, payments PaymentService, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{
		carts:     carts,
		discounts: discounts,
		orders:    orders,
		payments:  payments,
		log:       log,
		pollDelay: pollInterval,
		inflight:  map[string]struct{}{},
	}
}

// Stage returns the current progression point.
func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Cart returns the last server snapshot, nil before LoadCart.
func (f *Flow) Cart() *model.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart
}

// Order returns the created order, nil before CreateOrder.
func (f *Flow) Order() *model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// Session returns the payment session, nil before CreatePaymentSession.
func (f *Flow) Session() *model.PaymentSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

// DiscountCode returns the currently applied code, empty when none.
func (f *Flow) DiscountCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discountCode
}

// Total is the display total: Σ(quantity × unit price) − discount, floored at
// zero. Recomputed from the latest snapshot on every call.
func (f *Flow) Total() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cart == nil {
		return 0
	}
	t := f.cart.Subtotal() - f.discountAmount
	if t < 0 {
		return 0
	}
	return t
}

// LoadCart fetches or lazily creates the cart. A non-zero initialProductID
// (deep link) is added as a line item immediately after load.
func (f *Flow) LoadCart(ctx context.Context, initialProductID int64) (*model.Cart, error) {
	cart, err := f.carts.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	if initialProductID > 0 {
		cart, err = f.carts.AddItem(ctx, cart.ID, initialProductID, 1)
		if err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	f.cart = cart
	f.discountAmount = cart.DiscountAmount
	f.stage = StageCartLoaded
	f.mu.Unlock()
	return cart, nil
}

// SetQuantity sends the absolute target quantity for a product line and
// replaces the local cart with the server's snapshot.
func (f *Flow) SetQuantity(ctx context.Context, productID int64, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	cartID, err := f.cartID()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("add:%d", productID)
	if !f.acquire(key) {
		return nil, errs.ErrRequestInFlight
	}
	defer f.release(key)

	cart, err := f.carts.AddItem(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, err
	}
	f.replaceCart(cart)
	return cart, nil
}

// RemoveItem drops a product line and replaces the local cart.
func (f *Flow) RemoveItem(ctx context.Context, productID int64) (*model.Cart, error) {
	cartID, err := f.cartID()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("rm:%d", productID)
	if !f.acquire(key) {
		return nil, errs.ErrRequestInFlight
	}
	defer f.release(key)

	cart, err := f.carts.RemoveItem(ctx, cartID, productID)
	if err != nil {
		return nil, err
	}
	f.replaceCart(cart)
	return cart, nil
}

// ApplyDiscount applies a code immediately on selection. A new code overwrites
// the previous one; a failed apply resets the discount to zero and surfaces
// the error.
func (f *Flow) ApplyDiscount(ctx context.Context, code string) (float64, error) {
	cartID, err := f.cartID()
	if err != nil {
		return 0, err
	}
	amount, err := f.discounts.Apply(ctx, cartID, code)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.discountCode = ""
		f.discountAmount = 0
		return 0, err
	}
	f.discountCode = code
	f.discountAmount = amount
	return amount, nil
}

// CreateOrder turns the cart into an order. An empty cart blocks locally: no
// request is issued. One idempotency key covers the submission so a double
// tap cannot create two orders.
func (f *Flow) CreateOrder(ctx context.Context) (*model.Order, error) {
	f.mu.Lock()
	if f.cart == nil {
		f.mu.Unlock()
		return nil, errs.ErrEmptyCart
	}
	if len(f.cart.Items) == 0 {
		f.mu.Unlock()
		return nil, errs.ErrEmptyCart
	}
	in := service.CreateOrderInput{CartID: f.cart.ID, DiscountCode: f.discountCode}
	f.mu.Unlock()

	if !f.acquire("order") {
		return nil, errs.ErrRequestInFlight
	}
	defer f.release("order")

	key, _ := uuid.NewV4()
	order, err := f.orders.Create(ctx, in, api.WithIdempotencyKey(key.String()))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.order = order
	f.stage = StageOrderCreated
	f.mu.Unlock()
	f.log.Info("order created", zap.String("order_code", order.OrderCode))
	return order, nil
}

// CreatePaymentSession opens the hosted payment page for the created order.
// The returned checkout URL is handed to the embedded web view.
func (f *Flow) CreatePaymentSession(ctx context.Context) (*model.PaymentSession, error) {
	f.mu.Lock()
	order := f.order
	f.mu.Unlock()
	if order == nil {
		return nil, fmt.Errorf("no order to pay for")
	}
	sess, err := f.payments.CreateSession(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.session = sess
	f.stage = StageSessionCreated
	f.mu.Unlock()
	return sess, nil
}

func (f *Flow) cartID() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cart == nil {
		return 0, fmt.Errorf("cart not loaded")
	}
	return f.cart.ID, nil
}

func (f *Flow) replaceCart(cart *model.Cart) {
	f.mu.Lock()
	f.cart = cart
	f.mu.Unlock()
}

func (f *Flow) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.inflight[key]; busy {
		return false
	}
	f.inflight[key] = struct{}{}
	return true
}

func (f *Flow) release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inflight, key)
}

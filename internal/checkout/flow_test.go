package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/errs"
	"github.com/meditrade/storefront/internal/model"
	"github.com/meditrade/storefront/internal/service"
)

type fakeCarts struct {
	cart   model.Cart
	getErr error
	addErr error

	addCalls int
	rmCalls  int
	lastQty  int

	// entered/release let a test hold AddItem open.
	entered chan struct{}
	release chan struct{}
}

var _ CartService = (*fakeCarts)(nil)

func (f *fakeCarts) GetOrCreate(context.Context) (*model.Cart, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	c := f.cart
	return &c, nil
}

func (f *fakeCarts) AddItem(_ context.Context, _, productID int64, qty int, _ ...api.ReqOption) (*model.Cart, error) {
	f.addCalls++
	f.lastQty = qty
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if f.addErr != nil {
		return nil, f.addErr
	}
	c := f.cart
	c.Items = append([]model.CartItem{}, c.Items...)
	c.Items = append(c.Items, model.CartItem{
		ID:       int64(len(c.Items) + 1),
		Product:  model.Product{ID: productID, Price: 25000},
		Quantity: qty,
	})
	f.cart = c
	return &c, nil
}

func (f *fakeCarts) RemoveItem(_ context.Context, _, productID int64, _ ...api.ReqOption) (*model.Cart, error) {
	f.rmCalls++
	c := f.cart
	var kept []model.CartItem
	for _, it := range c.Items {
		if it.Product.ID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	f.cart = c
	return &c, nil
}

type fakeDiscounts struct {
	amount float64
	err    error
	calls  int
	codes  []string
}

var _ DiscountService = (*fakeDiscounts)(nil)

func (f *fakeDiscounts) Apply(_ context.Context, _ int64, code string) (float64, error) {
	f.calls++
	f.codes = append(f.codes, code)
	if f.err != nil {
		return 0, f.err
	}
	return f.amount, nil
}

type fakeOrders struct {
	order model.Order
	err   error
	calls int
	last  service.CreateOrderInput
}

var _ OrderService = (*fakeOrders)(nil)

func (f *fakeOrders) Create(_ context.Context, in service.CreateOrderInput, _ ...api.ReqOption) (*model.Order, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	o := f.order
	return &o, nil
}

type fakePayments struct {
	session    model.PaymentSession
	sessionErr error

	successErr   error
	successFailN int // fail only the first N success confirms (0 = always use successErr)
	cancelErr    error
	successCalls int
	cancelCalls  int
}

var _ PaymentService = (*fakePayments)(nil)

func (f *fakePayments) CreateSession(context.Context, int64, ...api.ReqOption) (*model.PaymentSession, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	s := f.session
	return &s, nil
}

func (f *fakePayments) ConfirmSuccess(context.Context, string) error {
	f.successCalls++
	if f.successFailN > 0 && f.successCalls > f.successFailN {
		return nil
	}
	return f.successErr
}

func (f *fakePayments) ConfirmCancel(context.Context, string) error {
	f.cancelCalls++
	return f.cancelErr
}

func cartWith(items ...model.CartItem) model.Cart {
	return model.Cart{ID: 11, Items: items}
}

func item(productID int64, price float64, qty int) model.CartItem {
	return model.CartItem{Product: model.Product{ID: productID, Price: price}, Quantity: qty}
}

func newTestFlow(carts *fakeCarts, discounts *fakeDiscounts, orders *fakeOrders, payments *fakePayments) *Flow {
	f := New(carts, discounts, orders, payments, nil)
	f.pollDelay = time.Millisecond
	return f
}

func TestFlow_TotalRecomputedFromSnapshot(t *testing.T) {
	carts := &fakeCarts{cart: cartWith(item(1, 40000, 2), item(2, 20000, 1))}
	f := newTestFlow(carts, &fakeDiscounts{amount: 10000}, &fakeOrders{}, &fakePayments{})

	if _, err := f.LoadCart(context.Background(), 0); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := f.Total(); got != 100000 {
		t.Fatalf("total before discount = %v, want 100000", got)
	}

	if _, err := f.ApplyDiscount(context.Background(), "SAVE10"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := f.Total(); got != 90000 {
		t.Fatalf("total after discount = %v, want 90000", got)
	}

	// A quantity change recomputes against the fresh snapshot.
	if _, err := f.SetQuantity(context.Background(), 3, 1); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if got := f.Total(); got != 115000 {
		t.Fatalf("total after add = %v, want 115000", got)
	}
}

func TestFlow_TotalNeverNegative(t *testing.T) {
	carts := &fakeCarts{cart: cartWith(item(1, 5000, 1))}
	f := newTestFlow(carts, &fakeDiscounts{amount: 99999}, &fakeOrders{}, &fakePayments{})
	if _, err := f.LoadCart(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ApplyDiscount(context.Background(), "HUGE"); err != nil {
		t.Fatal(err)
	}
	if got := f.Total(); got != 0 {
		t.Fatalf("total = %v, want 0", got)
	}
}

func TestFlow_LoadCartAddsDeepLinkedProduct(t *testing.T) {
	carts := &fakeCarts{cart: cartWith()}
	f := newTestFlow(carts, &fakeDiscounts{}, &fakeOrders{}, &fakePayments{})

	cart, err := f.LoadCart(context.Background(), 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if carts.addCalls != 1 || carts.lastQty != 1 {
		t.Fatalf("deep-linked product must be added once with quantity 1; calls=%d qty=%d", carts.addCalls, carts.lastQty)
	}
	if len(cart.Items) != 1 || cart.Items[0].Product.ID != 42 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if f.Stage() != StageCartLoaded {
		t.Fatalf("stage = %v", f.Stage())
	}
}

func TestFlow_SetQuantityRejectsBelowOne(t *testing.T) {
	carts := &fakeCarts{cart: cartWith(item(1, 1000, 1))}
	f := newTestFlow(carts, &fakeDiscounts{}, &fakeOrders{}, &fakePayments{})
	if _, err := f.LoadCart(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	if _, err := f.SetQuantity(context.Background(), 1, 0); err == nil {
		t.Fatal("expected error for quantity 0")
	}
	if carts.addCalls != 0 {
		t.Fatalf("invalid quantity must not reach the server, got %d calls", carts.addCalls)
	}
}

func TestFlow_DiscountFailureResetsToZero(t *testing.T) {
	carts := &fakeCarts{cart: cartWith(item(1, 50000, 2))}
	discounts := &fakeDiscounts{amount: 20000}
	f := newTestFlow(carts, discounts, &fakeOrders{}, &fakePayments{})
	if _, err := f.LoadCart(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	if _, err := f.ApplyDiscount(context.Background(), "GOOD"); err != nil {
		t.Fatal(err)
	}
	if f.Total() != 80000 {
		t.Fatalf("total = %v", f.Total())
	}

	discounts.err = errors.New("code expired")
	if _, err := f.ApplyDiscount(context.Background(), "BAD"); err == nil {
		t.Fatal("expected apply failure")
	}
	if f.Total() != 100000 {
		t.Fatalf("failed apply must reset the discount; total = %v", f.Total())
	}
	if f.DiscountCode() != "" {
		t.Fatalf("discount code must be cleared, got %q", f.DiscountCode())
	}
}

func TestFlow_NewDiscountOverwritesOld(t *testing.T) {
	carts := &fakeCarts{cart: cartWith(item(1, 100000, 1))}
	discounts := &fakeDiscounts{amount: 10000}
	f := newTestFlow(carts, discounts, &fakeOrders{}, &fakePayments{})
	if _, err := f.LoadCart(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	_, _ = f.ApplyDiscount(context.Background(), "FIRST")
	discounts.amount = 30000
	_, _ = f.ApplyDiscount(context.Background(), "SECOND")

	if f.DiscountCode() != "SECOND" {
		t.Fatalf("active code = %q", f.DiscountCode())
	}
	if f.Total() != 70000 {
		t.Fatalf("total = %v, want 70000", f.Total())
	}
}

func TestFlow_EmptyCartBlocksOrderCreation(t *testing.T) {
	carts := &fakeCarts{cart: cartWith()}
	orders := &fakeOrders{}
	f := newTestFlow(carts, &fakeDiscounts{}, orders, &fakePayments{})
	if _, err := f.LoadCart(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	_, err := f.CreateOrder(context.Background())
	if !errors.Is(err, errs.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart, got %v", err)
	}
	if orders.calls != 0 {
		t.Fatalf("no order-create call may be issued for an empty cart, got %d", orders.calls)
	}
}

func TestFlow_CreateOrderCarriesDiscountCode(t *testing.T) {
	carts := &fakeCarts{cart: cartWith(item(1, 10000, 1))}
	orders := &fakeOrders{order: model.Order{ID: 5, OrderCode: "ORD-5", Status: model.OrderPending}}
	f := newTestFlow(carts, &fakeDiscounts{amount: 1000}, orders, &fakePayments{})
	if _, err := f.LoadCart(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ApplyDiscount(context.Background(), "SAVE10"); err != nil {
		t.Fatal(err)
	}

	order, err := f.CreateOrder(context.Background())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if orders.last.CartID != 11 || orders.last.DiscountCode != "SAVE10" {
		t.Fatalf("order input = %+v", orders.last)
	}
	if order.OrderCode != "ORD-5" || f.Stage() != StageOrderCreated {
		t.Fatalf("order=%+v stage=%v", order, f.Stage())
	}
}

func TestFlow_PaymentSessionRequiresOrder(t *testing.T) {
	f := newTestFlow(&fakeCarts{cart: cartWith()}, &fakeDiscounts{}, &fakeOrders{}, &fakePayments{})
	if _, err := f.CreatePaymentSession(context.Background()); err == nil {
		t.Fatal("expected error without an order")
	}
}

func TestFlow_InFlightGuardSuppressesDuplicateMutation(t *testing.T) {
	carts := &fakeCarts{
		cart:    cartWith(item(1, 1000, 1)),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	f := newTestFlow(carts, &fakeDiscounts{}, &fakeOrders{}, &fakePayments{})
	// Load without the block in the way.
	carts.entered = nil
	if _, err := f.LoadCart(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	carts.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := f.SetQuantity(context.Background(), 1, 3)
		done <- err
	}()
	<-carts.entered // first mutation is now held open

	if _, err := f.SetQuantity(context.Background(), 1, 4); !errors.Is(err, errs.ErrRequestInFlight) {
		t.Fatalf("duplicate tap must be suppressed, got %v", err)
	}

	close(carts.release)
	if err := <-done; err != nil {
		t.Fatalf("first mutation: %v", err)
	}
	if carts.addCalls != 1 {
		t.Fatalf("server must see exactly one add, got %d", carts.addCalls)
	}
}

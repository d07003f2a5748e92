package api

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints builds absolute URLs for every backend resource from one base URL.
// Paths mirror the backend's routing table; callers never concatenate URLs.
type Endpoints struct {
	base string
}

// NewEndpoints normalizes base to end with a single slash.
func NewEndpoints(base string) Endpoints {
	return Endpoints{base: strings.TrimRight(base, "/") + "/"}
}

func (e Endpoints) u(format string, args ...any) string {
	return e.base + fmt.Sprintf(format, args...)
}

// Auth.

func (e Endpoints) Token() string                { return e.u("o/token/") }
func (e Endpoints) CurrentUser() string          { return e.u("users/current-user/") }
func (e Endpoints) Logout() string               { return e.u("users/logout/") }
func (e Endpoints) ChangePassword() string       { return e.u("users/change-password/") }
func (e Endpoints) PasswordResetRequest() string { return e.u("users/password-reset-request/") }
func (e Endpoints) PasswordResetConfirm() string { return e.u("users/password-reset-confirm/") }

// Users.

func (e Endpoints) Users() string                 { return e.u("users/") }
func (e Endpoints) User(id int64) string          { return e.u("users/%d/", id) }
func (e Endpoints) UserDeactivate() string        { return e.u("users/deactivate/") }
func (e Endpoints) UserChangeActiveState() string { return e.u("users/change-user-active-state/") }

// Products.

func (e Endpoints) Products() string                 { return e.u("products/") }
func (e Endpoints) Product(id int64) string          { return e.u("products/%d/", id) }
func (e Endpoints) ProductApprove(id int64) string   { return e.u("products/%d/approve/", id) }
func (e Endpoints) ProductUnapprove(id int64) string { return e.u("products/%d/unapprove/", id) }
func (e Endpoints) MyProducts() string               { return e.u("products/my-products/") }
func (e Endpoints) InventoryStatus() string          { return e.u("products/inventory-status/") }

// Carts.

func (e Endpoints) Carts() string                  { return e.u("carts/") }
func (e Endpoints) Cart(id int64) string           { return e.u("carts/%d/", id) }
func (e Endpoints) CartAddItem(id int64) string    { return e.u("carts/%d/add-item/", id) }
func (e Endpoints) CartRemoveItem(id int64) string { return e.u("carts/%d/remove-item/", id) }
func (e Endpoints) CartCheckout(id int64) string   { return e.u("carts/%d/checkout/", id) }

// Orders.

func (e Endpoints) Orders() string             { return e.u("orders/") }
func (e Endpoints) Order(id int64) string      { return e.u("orders/%d/", id) }
func (e Endpoints) OrderCancel(id int64) string { return e.u("orders/%d/cancel/", id) }

// Payments.

func (e Endpoints) CreateStripePayment() string { return e.u("payments/create-stripe-payment/") }

func (e Endpoints) PaymentSuccess(sessionID string) string {
	return e.u("payments/success/") + "?session_id=" + url.QueryEscape(sessionID)
}

func (e Endpoints) PaymentCancel(sessionID string) string {
	return e.u("payments/cancel/") + "?session_id=" + url.QueryEscape(sessionID)
}

// Inventory.

func (e Endpoints) Inventory() string               { return e.u("inventory/") }
func (e Endpoints) InventoryRecord(id int64) string { return e.u("inventory/%d/", id) }
func (e Endpoints) InventoryBulkCreate() string     { return e.u("inventory/bulk-create/") }
func (e Endpoints) InventoryBulkDelete() string     { return e.u("inventory/bulk-delete/") }
func (e Endpoints) InventoryLowStock() string       { return e.u("inventory/low-stock/") }

// Reviews.

func (e Endpoints) Reviews() string        { return e.u("reviews/") }
func (e Endpoints) Review(id int64) string { return e.u("reviews/%d/", id) }

func (e Endpoints) ProductReviews(productID int64) string {
	return e.u("reviews/product/%d/reviews/", productID)
}

func (e Endpoints) ReviewReplies() string { return e.u("review-replies/") }

// Discounts.

func (e Endpoints) Discounts() string     { return e.u("discounts/") }
func (e Endpoints) DiscountApply() string { return e.u("discounts/apply/") }

// Notifications.

func (e Endpoints) Notifications() string { return e.u("notifications/") }

func (e Endpoints) NotificationMarkAsRead(id int64) string {
	return e.u("notifications/%d/mark-as-read/", id)
}

// Chat.

func (e Endpoints) ChatMessages() string       { return e.u("chat-messages/") }
func (e Endpoints) ChatMessagesHistory() string { return e.u("chat-messages/history/") }

// Misc.

func (e Endpoints) Categories() string            { return e.u("categories/") }
func (e Endpoints) Statistics() string            { return e.u("statistics/") }
func (e Endpoints) DistributorStatistics() string { return e.u("distributor-statistics/") }

// WithQuery appends query parameters to an endpoint URL.
func WithQuery(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + params.Encode()
}

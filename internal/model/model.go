// Package model defines domain entities exchanged with the storefront backend.
// Field tags follow the backend's snake_case wire format.
package model

import (
	"strings"
	"time"
)

// Role is the account role that decides which operations are reachable.
// Client-side role checks are UX guards only; the server enforces authorization.
type Role string

const (
	RoleCustomer    Role = "customer"
	RoleDistributor Role = "distributor"
	RoleAdmin       Role = "admin"

	// RoleAnonymous is the zero session role before login.
	RoleAnonymous Role = ""
)

// User represents an account as returned by the users endpoints.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Tokens collects issued access/refresh tokens.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"` // access token expiry (for diagnostics)
}

// Product is a catalogue entry. Price is in VND, which has no minor unit.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Image       string    `json:"image,omitempty"`
	IsApproved  bool      `json:"is_approved"`
	Distributor int64     `json:"distributor,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Category groups catalogue products.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CartItem is a cart line with a denormalized product snapshot.
type CartItem struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart is the server-authoritative cart snapshot. Local copies are replaced
// wholesale by the response of every mutation; the client never merges.
type Cart struct {
	ID             int64      `json:"id"`
	Items          []CartItem `json:"items"`
	DiscountAmount float64    `json:"discount_amount,omitempty"`
}

// Subtotal is the raw item total before any discount.
func (c Cart) Subtotal() float64 {
	var sum float64
	for _, it := range c.Items {
		sum += float64(it.Quantity) * it.Product.Price
	}
	return sum
}

/// Total is the display total: subtotal minus the applied discount, floored at zero.
// The server remains authoritative for the persisted amount.
func (c Cart) Total() float64 {
	t := c.Subtotal() - c.DiscountAmount
	if t < 0 {
		return 0
	}
	return t
}

// OrderStatus is the server-driven order lifecycle state.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Cancellable reports whether the client may request cancellation.
func (s OrderStatus) Cancellable() bool { return s == OrderPending }

// OrderItem is an order line frozen at checkout time.
type OrderItem struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"` // unit price at order time
}

// Order is created from a cart at checkout and read-only afterwards,
// except for cancellation while pending.
type Order struct {
	ID             int64       `json:"id"`
	OrderCode      string      `json:"order_code"`
	Items          []OrderItem `json:"items"`
	TotalAmount    float64     `json:"total_amount"`
	DiscountAmount float64     `json:"discount_amount,omitempty"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at,omitzero"`
	UpdatedAt      time.Time   `json:"updated_at,omitzero"`
}

// Discount is a promo code offered for selection. DiscountAmount is computed
// by the server on apply, never client-side.
type Discount struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"discount_amount,omitempty"`
}

// PaymentSession is the server's response to a payment-session request.
// Either CheckoutURL is usable directly or SessionID identifies a hosted page.
type PaymentSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"url,omitempty"`
}

// InventoryRecord is a distributor stock record.
type InventoryRecord struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id,omitempty"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// Review is customer feedback on a product.
type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product"`
	User      User      `json:"user,omitzero"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// ReviewReply is a distributor response to a review.
type ReviewReply struct {
	ID       int64  `json:"id"`
	ReviewID int64  `json:"review"`
	Reply    string `json:"reply"`
}

// Notification is a server-pushed message shown in the notification list.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// ChatMessage is one exchange with the AI assistant.
type ChatMessage struct {
	ID             int64     `json:"id"`
	Message        string    `json:"message"`
	Response       string    `json:"response,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}

// PaymentOutcome classifies how an embedded payment page ended.
type PaymentOutcome int

const (
	// PaymentIndeterminate means the callback could not be confirmed within the
	// retry budget; the orders list is the final source of truth.
	PaymentIndeterminate PaymentOutcome = iota
	PaymentSucceeded
	PaymentCancelled
)

func (o PaymentOutcome) String() string {
	switch o {
	case PaymentSucceeded:
		return "succeeded"
	case PaymentCancelled:
		return "cancelled"
	default:
		return "indeterminate"
	}
}

// ParseRole normalizes a role string from the wire; unknown values map to anonymous.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(s)) {
	case RoleCustomer, RoleDistributor, RoleAdmin:
		return Role(strings.ToLower(s))
	default:
		return RoleAnonymous
	}
}

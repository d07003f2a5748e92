// Command storectl is a CLI client for the pharmacy storefront backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/checkout"
	"github.com/meditrade/storefront/internal/config"
	"github.com/meditrade/storefront/internal/credstore"
	"github.com/meditrade/storefront/internal/errs"
	"github.com/meditrade/storefront/internal/model"
	"github.com/meditrade/storefront/internal/service"
	"github.com/meditrade/storefront/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app bundles the wired client stack for command handlers.
type app struct {
	mgr           *session.Manager
	auth          *service.Auth
	products      *service.Products
	carts         *service.Carts
	orders        *service.Orders
	payments      *service.Payments
	discounts     *service.Discounts
	notifications *service.Notifications
	flow          *checkout.Flow
	log           *zap.Logger
}

func usage() {
	fmt.Fprintf(os.Stderr, `storectl
Usage:
  storectl [-base URL] [-timeout DUR] [-v] <cmd> [args]

Commands:
  version
  register       -u <username> -e <email> -p <password> -n <full name>
  login          -u <username> -p <password>        (saves session)
  logout
  whoami
  products       [-q <query>] [-cat <category>]
  product        -id <id>
  cart                                              (show cart and total)
  cart-add       -product <id> -qty <n>
  cart-rm        -product <id>
  discounts
  discount-apply -code <code>
  checkout                                          (order + payment session)
  pay-done       -url <redirect url>                (report payment redirect)
  orders
  order          -id <id>
  order-cancel   -id <id>
  notifications
  notify-read    -id <id>
`)
	os.Exit(2)
}

// main dispatches subcommands over the wired client stack.
func main() {
	base := flag.String("base", "", "backend base URL (overrides BASE_URL)")
	timeout := flag.Duration("timeout", 0, "HTTP timeout (overrides HTTP_TIMEOUT)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load(logger)
	if *base != "" {
		cfg.BaseURL = *base
	}
	if *timeout > 0 {
		cfg.HTTPTimeout = *timeout
	}

	a := wire(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch cmd {
	case "version":
		fmt.Printf("storectl %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		e := fs.String("e", "", "email")
		p := fs.String("p", "", "password")
		n := fs.String("n", "", "full name")
		_ = fs.Parse(args)
		if *u == "" || *e == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u, -e and -p")
			os.Exit(1)
		}
		user, err := a.auth.Register(ctx, service.RegisterInput{
			Username: *u, Email: *e, Password: *p, FullName: *n,
		})
		if err != nil {
			fail(err)
		}
		printJSON(user)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}
		user, err := a.mgr.Login(ctx, *u, *p)
		if err != nil {
			fail(err)
		}
		fmt.Printf("ok (%s, role %s)\n", user.Username, user.Role)

	case "logout":
		if err := a.mgr.Logout(ctx); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "whoami":
		st := a.restore(ctx)
		printJSON(st.User)

	case "products":
		fs := flag.NewFlagSet("products", flag.ExitOnError)
		q := fs.String("q", "", "search query")
		cat := fs.String("cat", "", "category")
		_ = fs.Parse(args)
		items, err := a.products.List(ctx, service.ProductFilter{Query: *q, Category: *cat})
		if err != nil {
			fail(err)
		}
		printJSON(items)

	case "product":
		id := parseID(args, "product")
		p, err := a.products.Get(ctx, id)
		if err != nil {
			fail(err)
		}
		printJSON(p)

	case "cart":
		a.requireRole(ctx, model.RoleCustomer)
		cart, err := a.flow.LoadCart(ctx, 0)
		if err != nil {
			fail(err)
		}
		printJSON(cart)
		fmt.Printf("total: %.0f\n", a.flow.Total())

	case "cart-add":
		fs := flag.NewFlagSet("cart-add", flag.ExitOnError)
		product := fs.Int64("product", 0, "product id")
		qty := fs.Int("qty", 1, "target quantity")
		_ = fs.Parse(args)
		if *product == 0 {
			fmt.Fprintln(os.Stderr, "need -product")
			os.Exit(1)
		}
		a.requireRole(ctx, model.RoleCustomer)
		if _, err := a.flow.LoadCart(ctx, 0); err != nil {
			fail(err)
		}
		cart, err := a.flow.SetQuantity(ctx, *product, *qty)
		if err != nil {
			fail(err)
		}
		printJSON(cart)

	case "cart-rm":
		fs := flag.NewFlagSet("cart-rm", flag.ExitOnError)
		product := fs.Int64("product", 0, "product id")
		_ = fs.Parse(args)
		if *product == 0 {
			fmt.Fprintln(os.Stderr, "need -product")
			os.Exit(1)
		}
		a.requireRole(ctx, model.RoleCustomer)
		if _, err := a.flow.LoadCart(ctx, 0); err != nil {
			fail(err)
		}
		cart, err := a.flow.RemoveItem(ctx, *product)
		if err != nil {
			fail(err)
		}
		printJSON(cart)

	case "discounts":
		a.restore(ctx)
		items, err := a.discounts.List(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(items)

	case "discount-apply":
		fs := flag.NewFlagSet("discount-apply", flag.ExitOnError)
		code := fs.String("code", "", "discount code")
		_ = fs.Parse(args)
		if *code == "" {
			fmt.Fprintln(os.Stderr, "need -code")
			os.Exit(1)
		}
		a.requireRole(ctx, model.RoleCustomer)
		if _, err := a.flow.LoadCart(ctx, 0); err != nil {
			fail(err)
		}
		amount, err := a.flow.ApplyDiscount(ctx, *code)
		if err != nil {
			fail(err)
		}
		fmt.Printf("discount %.0f, total %.0f\n", amount, a.flow.Total())

	case "checkout":
		a.requireRole(ctx, model.RoleCustomer)
		if _, err := a.flow.LoadCart(ctx, 0); err != nil {
			fail(err)
		}
		order, err := a.flow.CreateOrder(ctx)
		if err != nil {
			fail(err)
		}
		sess, err := a.flow.CreatePaymentSession(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Printf("order %s created\nopen this URL to pay: %s\nthen run: storectl pay-done -url <final redirect URL>\n",
			order.OrderCode, sess.CheckoutURL)

	case "pay-done":
		fs := flag.NewFlagSet("pay-done", flag.ExitOnError)
		raw := fs.String("url", "", "final redirect URL from the payment page")
		_ = fs.Parse(args)
		r, ok := checkout.ParseRedirect(*raw)
		if !ok {
			fmt.Fprintln(os.Stderr, "not a payment completion URL")
			os.Exit(1)
		}
		a.restore(ctx)
		outcome, err := a.flow.CompletePayment(ctx, r)
		if err != nil {
			fail(err)
		}
		switch outcome {
		case model.PaymentSucceeded:
			fmt.Println("payment confirmed")
		case model.PaymentCancelled:
			fmt.Println("payment cancelled")
		default:
			fmt.Println("payment is still processing; check your orders list")
		}

	case "orders":
		a.restore(ctx)
		items, err := a.orders.List(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(items)

	case "order":
		a.restore(ctx)
		id := parseID(args, "order")
		o, err := a.orders.Get(ctx, id)
		if err != nil {
			fail(err)
		}
		printJSON(o)

	case "order-cancel":
		a.restore(ctx)
		id := parseID(args, "order-cancel")
		o, err := a.orders.Get(ctx, id)
		if err != nil {
			fail(err)
		}
		o, err = a.orders.Cancel(ctx, o)
		if err != nil {
			fail(err)
		}
		printJSON(o)

	case "notifications":
		a.restore(ctx)
		items, err := a.notifications.List(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(items)

	case "notify-read":
		a.restore(ctx)
		id := parseID(args, "notify-read")
		if err := a.notifications.MarkAsRead(ctx, id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// wire assembles the client stack: credential store, both HTTP surfaces,
// session manager, resource services, checkout flow.
func wire(cfg config.Config, logger *zap.Logger) *app {
	store := credstore.NewFile("")
	ep := api.NewEndpoints(cfg.BaseURL)
	pub := api.New(api.WithLogger(logger), api.WithTimeout(cfg.HTTPTimeout))
	refresher := api.NewRefresher(pub, store, ep.Token(), cfg.ClientID, cfg.ClientSecret, logger)
	auth := api.NewAuth(pub, store, refresher, logger)

	authSvc := service.NewAuth(pub, auth, ep, cfg.ClientID, cfg.ClientSecret)
	carts := service.NewCarts(auth, ep)
	orders := service.NewOrders(auth, ep)
	payments := service.NewPayments(auth, ep)
	discounts := service.NewDiscounts(auth, ep)

	return &app{
		mgr:           session.NewManager(authSvc, store, logger),
		auth:          authSvc,
		products:      service.NewProducts(auth, ep),
		carts:         carts,
		orders:        orders,
		payments:      payments,
		discounts:     discounts,
		notifications: service.NewNotifications(auth, ep),
		flow:          checkout.New(carts, discounts, orders, payments, logger),
		log:           logger,
	}
}

// restore rehydrates the stored session and exits when none exists.
func (a *app) restore(ctx context.Context) session.State {
	st := a.mgr.Restore(ctx)
	if !st.Authenticated() {
		fmt.Fprintln(os.Stderr, "not logged in (run: storectl login)")
		os.Exit(1)
	}
	return st
}

// requireRole is a UX guard; the server still enforces authorization.
func (a *app) requireRole(ctx context.Context, role model.Role) session.State {
	st := a.restore(ctx)
	if st.Role() != role {
		fmt.Fprintf(os.Stderr, "command requires the %s role\n", role)
		os.Exit(1)
	}
	return st
}

func parseID(args []string, name string) int64 {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.Int64("id", 0, "resource id")
	_ = fs.Parse(args)
	if *id == 0 {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}
	return *id
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	var ae *api.APIError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "error %d: %s\n", ae.Status, ae.Detail)
		if errors.Is(err, errs.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "run: storectl login")
		}
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

package checkout

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

const (
	pollInterval = 2 * time.Second
	pollRetries  = 3
)

// Redirect is a completion redirect observed in the embedded payment page.
type Redirect struct {
	Success   bool
	SessionID string
}

// ParseRedirect matches payment completion URLs: a path containing /success/
// or /cancel/ with a session_id query parameter. Other navigations are not
// completion events and return false.
func ParseRedirect(rawURL string) (Redirect, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Redirect{}, false
	}
	sid := u.Query().Get("session_id")
	if sid == "" {
		return Redirect{}, false
	}
	path := u.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	switch {
	case strings.Contains(path, "/success/"):
		return Redirect{Success: true, SessionID: sid}, true
	case strings.Contains(path, "/cancel/"):
		return Redirect{Success: false, SessionID: sid}, true
	default:
		return Redirect{}, false
	}
}

// CompletePayment reports the observed redirect to the backend callback.
//
// The callback is polled with up to 3 retries at a fixed delay, but only when
// the failure is a local connectivity error; anything else surfaces
// immediately. Exhausting the retries on a success redirect does not fail the
// flow: the outcome becomes Indeterminate ("payment is still processing") and
// the orders list is the final source of truth. This deliberately favors
// availability over certainty on flaky mobile networks.
func (f *Flow) CompletePayment(ctx context.Context, r Redirect) (model.PaymentOutcome, error) {
	f.mu.Lock()
	f.stage = StagePaymentPending
	f.mu.Unlock()

	confirm := f.payments.ConfirmCancel
	if r.Success {
		confirm = f.payments.ConfirmSuccess
	}

	backoff := retry.WithMaxRetries(pollRetries, retry.NewConstant(f.pollDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := confirm(ctx, r.SessionID)
		if isConnectivityError(err) {
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
	case isConnectivityError(err):
		// Retries exhausted without reaching the backend.
		f.setStage(StageDone)
		if r.Success {
			f.log.Warn("payment callback unreachable; treating as still processing", zap.Error(err))
			return model.PaymentIndeterminate, nil
		}
		f.log.Warn("cancel callback unreachable", zap.Error(err))
		return model.PaymentCancelled, nil
	default:
		return model.PaymentIndeterminate, err
	}

	f.setStage(StageDone)
	if r.Success {
		return model.PaymentSucceeded, nil
	}
	return model.PaymentCancelled, nil
}

func (f *Flow) setStage(s Stage) {
	f.mu.Lock()
	f.stage = s
	f.mu.Unlock()
}

// isConnectivityError classifies connection-refused-class failures: the
// request never reached the backend. Normalized API errors (a response came
// back) are never connectivity errors.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var ae *api.APIError
	if errors.As(err, &ae) {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return true
		}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

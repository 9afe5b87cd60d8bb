package checkout

import (
	"context"
	"sync"
	"time"

	"storefront/internal/pricing"
)

// ReconcilerState is the explicit coupon revalidation state.
type ReconcilerState int

const (
	// StateIdle: no pending revalidation.
	StateIdle ReconcilerState = iota
	// StateDebouncing: a cart edit armed the debounce timer.
	StateDebouncing
	// StateSuppressed: a coupon was just applied manually; the next cart
	// change skips its revalidation exactly once.
	StateSuppressed
)

const (
	defaultDebounce    = 500 * time.Millisecond
	defaultSuppression = 1000 * time.Millisecond
	revalidateTimeout  = 10 * time.Second
)

// CouponReconciler validates a user-entered code, caches the applied coupon,
// and revalidates it whenever the cart total changes.
//
// Apply is fail-closed: any transport failure leaves no coupon applied.
// Revalidation is fail-open: a transport failure keeps the applied coupon;
// only an explicit invalid response clears it.
type CouponReconciler struct {
	mu        sync.Mutex
	validator CouponValidator

	debounce    time.Duration
	suppression time.Duration

	state  ReconcilerState
	coupon *pricing.Coupon
	code   string
	total  float64

	// gen invalidates outstanding timer callbacks after a cancel.
	gen           int
	debounceTimer *time.Timer
	suppressTimer *time.Timer

	// onCleared surfaces the localized message when revalidation clears
	// the coupon. Optional.
	onCleared func(Message)
}

// ReconcilerOption configures a CouponReconciler.
type ReconcilerOption func(*CouponReconciler)

// WithTimings overrides the debounce delay and suppression window.
func WithTimings(debounce, suppression time.Duration) ReconcilerOption {
	return func(r *CouponReconciler) {
		r.debounce = debounce
		r.suppression = suppression
	}
}

// WithClearedCallback registers the handler invoked when a revalidation
// failure clears the applied coupon.
func WithClearedCallback(fn func(Message)) ReconcilerOption {
	return func(r *CouponReconciler) {
		r.onCleared = fn
	}
}

func NewCouponReconciler(validator CouponValidator, opts ...ReconcilerOption) *CouponReconciler {
	r := &CouponReconciler{
		validator:   validator,
		debounce:    defaultDebounce,
		suppression: defaultSuppression,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Coupon returns the currently applied coupon, or nil.
func (r *CouponReconciler) Coupon() *pricing.Coupon {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coupon
}

// State returns the current reconciler state.
func (r *CouponReconciler) State() ReconcilerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Apply validates the code against the current order amount and stores the
// coupon on success. The suppression window is armed so the cart-change
// revalidation that would immediately follow is skipped once.
func (r *CouponReconciler) Apply(ctx context.Context, code string, orderAmount float64) error {
	result, err := r.validator.ValidateCoupon(ctx, code, orderAmount)
	if err != nil {
		// Fail-closed on apply: no coupon survives a transport error.
		r.Remove()
		return msgNetworkError
	}
	if !result.Valid {
		r.Remove()
		if result.Error.En != "" {
			return result.Error
		}
		return msgCouponInvalid
	}

	coupon := result.Coupon
	if coupon == nil {
		coupon = &pricing.Coupon{Code: code}
	}
	coupon.DiscountAmount = result.Discount

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelTimersLocked()
	r.coupon = coupon
	r.code = coupon.Code
	r.total = orderAmount
	r.state = StateSuppressed

	gen := r.gen
	r.suppressTimer = time.AfterFunc(r.suppression, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen != gen || r.state != StateSuppressed {
			return
		}
		r.state = StateIdle
	})

	return nil
}

// OnCartChanged reacts to a new cart total. A zero total clears the coupon
// without a network call. Within the suppression window the revalidation is
// skipped exactly once. Otherwise the debounce timer is (re)armed and the
// coupon is revalidated against the new amount when it fires.
func (r *CouponReconciler) OnCartChanged(newTotal float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = newTotal

	if newTotal <= 0 {
		r.clearLocked()
		return
	}

	if r.coupon == nil {
		return
	}

	if r.state == StateSuppressed {
		// One-shot: consume the suppression so the next edit revalidates.
		r.cancelSuppressLocked()
		r.state = StateIdle
		return
	}

	if r.debounceTimer != nil {
		r.debounceTimer.Stop()
	}
	r.state = StateDebouncing

	gen := r.gen
	r.debounceTimer = time.AfterFunc(r.debounce, func() {
		r.fireRevalidation(gen)
	})
}

// Remove clears the applied coupon and cancels any pending timers.
func (r *CouponReconciler) Remove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
}

func (r *CouponReconciler) fireRevalidation(gen int) {
	r.mu.Lock()
	if r.gen != gen || r.coupon == nil {
		r.mu.Unlock()
		return
	}
	code := r.code
	total := r.total
	r.state = StateIdle
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
	defer cancel()

	result, err := r.validator.ValidateCoupon(ctx, code, total)
	if err != nil {
		// Fail-open on revalidation: keep the coupon across transient
		// network failures.
		return
	}

	r.mu.Lock()
	if r.gen != gen || r.coupon == nil {
		r.mu.Unlock()
		return
	}

	if !result.Valid {
		r.clearLocked()
		msg := result.Error
		if msg.En == "" {
			msg = msgCouponInvalid
		}
		cb := r.onCleared
		r.mu.Unlock()
		if cb != nil {
			cb(msg)
		}
		return
	}

	if result.Coupon != nil {
		result.Coupon.DiscountAmount = result.Discount
		r.coupon = result.Coupon
		r.code = result.Coupon.Code
	} else {
		r.coupon.DiscountAmount = result.Discount
	}
	r.mu.Unlock()
}

func (r *CouponReconciler) clearLocked() {
	r.cancelTimersLocked()
	r.coupon = nil
	r.code = ""
	r.state = StateIdle
}

func (r *CouponReconciler) cancelTimersLocked() {
	r.gen++
	if r.debounceTimer != nil {
		r.debounceTimer.Stop()
		r.debounceTimer = nil
	}
	r.cancelSuppressLocked()
}

func (r *CouponReconciler) cancelSuppressLocked() {
	if r.suppressTimer != nil {
		r.suppressTimer.Stop()
		r.suppressTimer = nil
	}
}

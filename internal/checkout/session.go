package checkout

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"storefront/internal/pricing"
)

// Step is the wizard position. Steps progress forward only through
// validated transitions; Previous regresses unconditionally.
type Step int

const (
	StepInformation Step = iota + 1
	StepShipping
	StepPayment
	StepPaymentProof
	StepReview
	// StepConfirmed is terminal; no transition leaves it.
	StepConfirmed
)

// FormData carries the customer identity, address and payment selections
// entered across the wizard.
type FormData struct {
	FirstName             string
	LastName              string
	Email                 string
	Phone                 string
	Address               string
	City                  string
	PostalCode            string
	Notes                 string
	PaymentMethod         string // "instapay" | "vodafone" | "cod"
	ShippingPaymentMethod string // required when PaymentMethod is "cod"
}

var (
	// Latin and Arabic letters, spaces, hyphens and apostrophes.
	nameRe   = regexp.MustCompile(`^[a-zA-Z\p{Arabic}\s'-]+$`)
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe  = regexp.MustCompile(`^01[0125][0-9]{8}$`)
	postalRe = regexp.MustCompile(`^[0-9]{5}$`)
)

var allowedProofTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

const maxProofSize = 5 << 20

// Session drives the five-step checkout wizard over an externally owned
// cart. All network round-trips happen through the injected ports; a failed
// transition leaves the wizard on its current step.
type Session struct {
	cart      CartStore
	stock     StockValidator
	uploader  ProofUploader
	submitter OrderSubmitter
	Coupons   *CouponReconciler

	Form          FormData
	ShippingPrice float64
	CSRFToken     string

	step     Step
	proofURL string
	receipt  OrderReceipt

	validating bool
	uploading  bool
	confirming bool
}

// NewSession starts a wizard on the information step.
func NewSession(cart CartStore, stock StockValidator, coupons *CouponReconciler, uploader ProofUploader, submitter OrderSubmitter) *Session {
	return &Session{
		cart:      cart,
		stock:     stock,
		uploader:  uploader,
		submitter: submitter,
		Coupons:   coupons,
		step:      StepInformation,
	}
}

// Step returns the current wizard step.
func (s *Session) Step() Step {
	return s.step
}

// Receipt returns the server acknowledgement after a confirmed order.
func (s *Session) Receipt() OrderReceipt {
	return s.receipt
}

// ProofURL returns the stored payment proof location, if uploaded.
func (s *Session) ProofURL() string {
	return s.proofURL
}

// Totals recomputes the derived price breakdown from the current cart,
// coupon, shipping price and payment method. Nothing is cached.
func (s *Session) Totals() pricing.Totals {
	return pricing.Compute(s.cart.Items(), s.Coupons.Coupon(), s.ShippingPrice, s.Form.PaymentMethod)
}

// CartEdited must be called after any quantity change or item removal so the
// applied coupon is reconciled against the new total.
func (s *Session) CartEdited() {
	s.Coupons.OnCartChanged(pricing.CartTotal(s.cart.Items()))
}

// Next advances one step when the current step's validation passes. The
// information step additionally requires a successful server-side stock
// check for every cart line.
func (s *Session) Next(ctx context.Context) error {
	switch s.step {
	case StepInformation:
		if err := s.validateInformation(); err != nil {
			return err
		}
		if s.validating {
			return msgRequestInFlight
		}
		s.validating = true
		result, err := s.stock.ValidateStock(ctx, s.cart.Items())
		s.validating = false
		if err != nil {
			return msgNetworkError
		}
		if !result.Valid {
			if result.Message.En != "" {
				return result.Message
			}
			return msgNetworkError
		}
		s.step = StepShipping
		return nil

	case StepShipping:
		if err := s.validateShipping(); err != nil {
			return err
		}
		s.step = StepPayment
		return nil

	case StepPayment:
		if err := s.validatePayment(); err != nil {
			return err
		}
		s.step = StepPaymentProof
		return nil

	case StepPaymentProof:
		if s.proofRequired() && s.proofURL == "" {
			return msgProofRequired
		}
		s.step = StepReview
		return nil

	case StepReview:
		return errors.New("use Confirm to finish the review step")

	default:
		return msgAlreadyConfirmed
	}
}

// Previous regresses one step without validation. It has no effect on the
// information step or after confirmation.
func (s *Session) Previous() {
	if s.step > StepInformation && s.step < StepConfirmed {
		s.step--
	}
}

// UploadProof validates the image client-side and performs the multipart
// upload. Violations block the upload with a localized message and the
// wizard does not advance.
func (s *Session) UploadProof(ctx context.Context, filename, contentType string, data []byte) error {
	if s.step == StepConfirmed {
		return msgAlreadyConfirmed
	}
	if _, ok := allowedProofTypes[strings.ToLower(contentType)]; !ok {
		return msgProofType
	}
	if len(data) > maxProofSize {
		return msgProofTooLarge
	}
	if s.uploading {
		return msgRequestInFlight
	}

	s.uploading = true
	upload, err := s.uploader.UploadProof(ctx, filename, contentType, data)
	s.uploading = false
	if err != nil {
		return msgNetworkError
	}

	if upload.URL != "" {
		s.proofURL = upload.URL
	} else if upload.Data != "" {
		s.proofURL = "data:" + upload.ContentType + ";base64," + upload.Data
	} else {
		return msgNetworkError
	}
	return nil
}

// Confirm submits the order from the review step. On success the cart is
// cleared and the wizard becomes terminal. A stock-conflict rejection is
// returned as ErrStockConflict so the caller can prompt a return to the
// cart; any rejection leaves the wizard on the review step for retry.
func (s *Session) Confirm(ctx context.Context) error {
	if s.step == StepConfirmed {
		return msgAlreadyConfirmed
	}
	if s.step != StepReview {
		return errors.New("order can only be confirmed from the review step")
	}
	if s.confirming {
		return msgRequestInFlight
	}

	if err := s.validateInformation(); err != nil {
		return err
	}
	if err := s.validateShipping(); err != nil {
		return err
	}
	if err := s.validatePayment(); err != nil {
		return err
	}
	if strings.TrimSpace(s.CSRFToken) == "" {
		return msgSessionExpired
	}
	if s.proofRequired() && s.proofURL == "" {
		return msgProofRequired
	}

	req := BuildOrderRequest(s.cart.Items(), s.Form, s.Totals(), s.Coupons.Coupon(), s.proofURL, s.CSRFToken)

	s.confirming = true
	receipt, err := s.submitter.SubmitOrder(ctx, req)
	s.confirming = false
	if err != nil {
		if errors.Is(err, ErrStockConflict) {
			return err
		}
		return msgNetworkError
	}

	s.receipt = receipt
	s.cart.Clear()
	s.Coupons.Remove()
	s.step = StepConfirmed
	return nil
}

func (s *Session) validateInformation() error {
	first := strings.TrimSpace(s.Form.FirstName)
	last := strings.TrimSpace(s.Form.LastName)
	if first == "" || last == "" {
		return msgNameRequired
	}
	if !nameRe.MatchString(first) || !nameRe.MatchString(last) {
		return msgNameInvalid
	}
	if !emailRe.MatchString(strings.TrimSpace(s.Form.Email)) {
		return msgEmailInvalid
	}
	if !phoneRe.MatchString(strings.TrimSpace(s.Form.Phone)) {
		return msgPhoneInvalid
	}
	return nil
}

func (s *Session) validateShipping() error {
	if strings.TrimSpace(s.Form.Address) == "" || strings.TrimSpace(s.Form.City) == "" {
		return msgAddressRequired
	}
	if postal := strings.TrimSpace(s.Form.PostalCode); postal != "" && !postalRe.MatchString(postal) {
		return msgPostalInvalid
	}
	return nil
}

func (s *Session) validatePayment() error {
	switch s.Form.PaymentMethod {
	case "instapay", "vodafone":
		return nil
	case "cod":
		switch s.Form.ShippingPaymentMethod {
		case "instapay", "vodafone":
			return nil
		default:
			return msgShippingPaymentRequired
		}
	default:
		return msgPaymentMethodRequired
	}
}

// proofRequired reports whether the effective payment method is electronic.
// For COD the shipping fee is still prepaid, so the shipping payment method
// decides.
func (s *Session) proofRequired() bool {
	method := s.Form.PaymentMethod
	if method == "cod" {
		method = s.Form.ShippingPaymentMethod
	}
	return method == "instapay" || method == "vodafone"
}

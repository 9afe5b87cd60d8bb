package checkout

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/pricing"
)

type fakeCart struct {
	items   []pricing.CartItem
	cleared bool
}

func (f *fakeCart) Items() []pricing.CartItem { return f.items }
func (f *fakeCart) Clear()                    { f.cleared = true }

type fakeStockValidator struct {
	result StockResult
	err    error
	calls  int
}

func (f *fakeStockValidator) ValidateStock(_ context.Context, _ []pricing.CartItem) (StockResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeUploader struct {
	upload ProofUpload
	err    error
	calls  int
}

func (f *fakeUploader) UploadProof(_ context.Context, _, _ string, _ []byte) (ProofUpload, error) {
	f.calls++
	return f.upload, f.err
}

type fakeSubmitter struct {
	receipt OrderReceipt
	err     error
	lastReq OrderRequest
	calls   int
}

func (f *fakeSubmitter) SubmitOrder(_ context.Context, req OrderRequest) (OrderReceipt, error) {
	f.calls++
	f.lastReq = req
	return f.receipt, f.err
}

type sessionFixture struct {
	cart      *fakeCart
	stock     *fakeStockValidator
	coupons   *fakeCouponValidator
	uploader  *fakeUploader
	submitter *fakeSubmitter
	session   *Session
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		cart: &fakeCart{items: []pricing.CartItem{
			{ProductID: "p1", Price: 450, Quantity: 1, SelectedSize: "M", SelectedColor: "Black"},
		}},
		stock:     &fakeStockValidator{result: StockResult{Valid: true}},
		coupons:   &fakeCouponValidator{},
		uploader:  &fakeUploader{upload: ProofUpload{URL: "/uploads/payment-proofs/proof.png"}},
		submitter: &fakeSubmitter{receipt: OrderReceipt{OrderID: "abc123", OrderNumber: "ORD-20260831-DEADBEEF"}},
	}
	f.session = NewSession(f.cart, f.stock, newTestReconciler(f.coupons), f.uploader, f.submitter)
	return f
}

func fillValidForm(s *Session) {
	s.Form = FormData{
		FirstName:     "Ahmed",
		LastName:      "Hassan",
		Email:         "ahmed@example.com",
		Phone:         "01012345678",
		Address:       "12 Tahrir St",
		City:          "Cairo",
		PaymentMethod: "instapay",
	}
	s.ShippingPrice = 50
	s.CSRFToken = "tok-1"
}

// advanceTo walks a fully valid session forward to the target step.
func advanceTo(t *testing.T, f *sessionFixture, target Step) {
	t.Helper()
	for f.session.Step() < target {
		require.NoError(t, f.session.Next(context.Background()))
	}
}

func TestSessionStartsOnInformationStep(t *testing.T) {
	f := newSessionFixture()
	assert.Equal(t, StepInformation, f.session.Step())
}

func TestInformationStepValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FormData)
		want   Message
	}{
		{"missing name", func(fd *FormData) { fd.FirstName = "" }, msgNameRequired},
		{"digits in name", func(fd *FormData) { fd.LastName = "Hassan99" }, msgNameInvalid},
		{"bad email", func(fd *FormData) { fd.Email = "not-an-email" }, msgEmailInvalid},
		{"short phone", func(fd *FormData) { fd.Phone = "0101234567" }, msgPhoneInvalid},
		{"wrong phone prefix", func(fd *FormData) { fd.Phone = "01312345678" }, msgPhoneInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newSessionFixture()
			fillValidForm(f.session)
			tc.mutate(&f.session.Form)

			err := f.session.Next(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.want, err)
			assert.Equal(t, StepInformation, f.session.Step())
			assert.Zero(t, f.stock.calls, "local validation failures must not hit the network")
		})
	}
}

func TestArabicNamesAreAccepted(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	f.session.Form.FirstName = "أحمد"
	f.session.Form.LastName = "حسن"

	require.NoError(t, f.session.Next(context.Background()))
	assert.Equal(t, StepShipping, f.session.Step())
}

func TestInformationStepRequiresStockCheck(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	f.stock.result = StockResult{
		Valid:   false,
		Message: Message{En: "Product is out of stock", Ar: "المنتج غير متوفر"},
	}

	err := f.session.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Product is out of stock", err.Error())
	assert.Equal(t, StepInformation, f.session.Step())
}

func TestStockCheckTransportErrorBlocksAdvance(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	f.stock.err = errors.New("dial tcp: timeout")

	err := f.session.Next(context.Background())
	assert.Equal(t, msgNetworkError, err)
	assert.Equal(t, StepInformation, f.session.Step())
}

func TestShippingStepPostalCodeValidation(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	advanceTo(t, f, StepShipping)

	for _, postal := range []string{"1234", "123456", "12a45", "١٢٣٤٥"} {
		f.session.Form.PostalCode = postal
		err := f.session.Next(context.Background())
		assert.Equal(t, msgPostalInvalid, err, "postal %q must be rejected", postal)
		assert.Equal(t, StepShipping, f.session.Step())
	}

	// Optional: empty passes, five ASCII digits pass.
	f.session.Form.PostalCode = ""
	require.NoError(t, f.session.Next(context.Background()))
	f.session.Previous()
	f.session.Form.PostalCode = "12345"
	require.NoError(t, f.session.Next(context.Background()))
	assert.Equal(t, StepPayment, f.session.Step())
}

func TestPaymentStepRequiresMethod(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	f.session.Form.PaymentMethod = ""
	advanceTo(t, f, StepPayment)

	err := f.session.Next(context.Background())
	assert.Equal(t, msgPaymentMethodRequired, err)
}

func TestCODRequiresShippingPaymentMethod(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	f.session.Form.PaymentMethod = "cod"
	advanceTo(t, f, StepPayment)

	err := f.session.Next(context.Background())
	assert.Equal(t, msgShippingPaymentRequired, err)
	assert.Equal(t, StepPayment, f.session.Step())

	f.session.Form.ShippingPaymentMethod = "vodafone"
	require.NoError(t, f.session.Next(context.Background()))
	assert.Equal(t, StepPaymentProof, f.session.Step())
}

func TestProofStepRequiresUploadForElectronicPayment(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	advanceTo(t, f, StepPaymentProof)

	err := f.session.Next(context.Background())
	assert.Equal(t, msgProofRequired, err)

	require.NoError(t, f.session.UploadProof(context.Background(), "proof.png", "image/png", []byte("png-bytes")))
	require.NoError(t, f.session.Next(context.Background()))
	assert.Equal(t, StepReview, f.session.Step())
}

func TestProofRequiredForCODWithElectronicShippingFee(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	f.session.Form.PaymentMethod = "cod"
	f.session.Form.ShippingPaymentMethod = "instapay"
	advanceTo(t, f, StepPaymentProof)

	err := f.session.Next(context.Background())
	assert.Equal(t, msgProofRequired, err, "shipping fee is prepaid, so proof is still required")
}

func TestUploadProofRejectsBadFiles(t *testing.T) {
	f := newSessionFixture()

	err := f.session.UploadProof(context.Background(), "receipt.pdf", "application/pdf", []byte("%PDF"))
	assert.Equal(t, msgProofType, err)

	huge := bytes.Repeat([]byte("a"), maxProofSize+1)
	err = f.session.UploadProof(context.Background(), "big.png", "image/png", huge)
	assert.Equal(t, msgProofTooLarge, err)

	assert.Zero(t, f.uploader.calls)
}

func TestUploadProofStoresDataURIForDBStorage(t *testing.T) {
	f := newSessionFixture()
	f.uploader.upload = ProofUpload{Data: "aGVsbG8=", ContentType: "image/png"}

	require.NoError(t, f.session.UploadProof(context.Background(), "proof.png", "image/png", []byte("hello")))
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", f.session.ProofURL())
}

func TestPreviousRegressesWithoutValidation(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	advanceTo(t, f, StepPayment)

	f.session.Previous()
	assert.Equal(t, StepShipping, f.session.Step())
	f.session.Previous()
	f.session.Previous() // already at the first step, stays put
	assert.Equal(t, StepInformation, f.session.Step())
}

func TestConfirmRequiresCSRFTokenBeforeNetwork(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	require.NoError(t, f.session.UploadProof(context.Background(), "proof.png", "image/png", []byte("x")))
	advanceTo(t, f, StepReview)

	f.session.CSRFToken = ""
	err := f.session.Confirm(context.Background())
	assert.Equal(t, msgSessionExpired, err)
	assert.Zero(t, f.submitter.calls)
}

func TestConfirmSubmitsAndBecomesTerminal(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	require.NoError(t, f.session.UploadProof(context.Background(), "proof.png", "image/png", []byte("x")))
	advanceTo(t, f, StepReview)

	require.NoError(t, f.session.Confirm(context.Background()))

	assert.Equal(t, StepConfirmed, f.session.Step())
	assert.True(t, f.cart.cleared)
	assert.Equal(t, "ORD-20260831-DEADBEEF", f.session.Receipt().OrderNumber)

	req := f.submitter.lastReq
	require.Len(t, req.Items, 1)
	assert.Equal(t, "p1", req.Items[0].ProductID)
	assert.Equal(t, "M", req.Items[0].Size)
	assert.Equal(t, 500.0, req.PrepaidAmount)
	assert.Equal(t, 0.0, req.CODAmount)
	assert.Empty(t, req.ShippingPaymentMethod)
	assert.Equal(t, "tok-1", req.CSRFToken)

	// Terminal: nothing moves the wizard afterwards.
	assert.Equal(t, msgAlreadyConfirmed, f.session.Confirm(context.Background()))
	assert.Equal(t, msgAlreadyConfirmed, f.session.Next(context.Background()))
	f.session.Previous()
	assert.Equal(t, StepConfirmed, f.session.Step())
}

func TestConfirmCODSplitsTotals(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	f.session.Form.PaymentMethod = "cod"
	f.session.Form.ShippingPaymentMethod = "vodafone"
	require.NoError(t, f.session.UploadProof(context.Background(), "proof.png", "image/png", []byte("x")))
	advanceTo(t, f, StepReview)

	require.NoError(t, f.session.Confirm(context.Background()))

	req := f.submitter.lastReq
	assert.Equal(t, 50.0, req.PrepaidAmount)
	assert.Equal(t, 450.0, req.CODAmount)
	assert.Equal(t, "vodafone", req.ShippingPaymentMethod)
}

func TestConfirmIncludesAppliedCoupon(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	f.coupons.set(validResult("SAVE50", 50), nil)
	require.NoError(t, f.session.Coupons.Apply(context.Background(), "SAVE50", 450))
	require.NoError(t, f.session.UploadProof(context.Background(), "proof.png", "image/png", []byte("x")))
	advanceTo(t, f, StepReview)

	require.NoError(t, f.session.Confirm(context.Background()))

	req := f.submitter.lastReq
	assert.Equal(t, "SAVE50", req.CouponCode)
	assert.Equal(t, 50.0, req.CouponDiscount)
	assert.Equal(t, 450.0, req.PrepaidAmount) // (450-50)+50 shipping
}

func TestConfirmStockConflictReturnsSentinel(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	require.NoError(t, f.session.UploadProof(context.Background(), "proof.png", "image/png", []byte("x")))
	advanceTo(t, f, StepReview)

	f.submitter.err = ErrStockConflict
	err := f.session.Confirm(context.Background())
	require.ErrorIs(t, err, ErrStockConflict)
	assert.Equal(t, StepReview, f.session.Step())
	assert.False(t, f.cart.cleared)
}

func TestConfirmGenericFailureKeepsReviewStep(t *testing.T) {
	f := newSessionFixture()
	fillValidForm(f.session)
	require.NoError(t, f.session.UploadProof(context.Background(), "proof.png", "image/png", []byte("x")))
	advanceTo(t, f, StepReview)

	f.submitter.err = errors.New("internal server error")
	err := f.session.Confirm(context.Background())
	assert.Equal(t, msgNetworkError, err)
	assert.Equal(t, StepReview, f.session.Step())
	assert.False(t, f.cart.cleared)
}

func TestBuildOrderRequestOmitsShippingMethodForElectronic(t *testing.T) {
	form := FormData{
		FirstName: " Ahmed ", LastName: "Hassan",
		Email: "ahmed@example.com", Phone: "01012345678",
		Address: "12 Tahrir St", City: "Cairo",
		PaymentMethod:         "instapay",
		ShippingPaymentMethod: "vodafone", // leftover from an earlier COD choice
	}
	items := []pricing.CartItem{{ProductID: "p1", Price: 100, Quantity: 2}}
	totals := pricing.Compute(items, nil, 50, "instapay")

	req := BuildOrderRequest(items, form, totals, nil, "", "tok")
	assert.Empty(t, req.ShippingPaymentMethod)
	assert.Equal(t, "Ahmed", req.FirstName)
	assert.Equal(t, 250.0, req.PrepaidAmount)
}

func TestMessageLocalization(t *testing.T) {
	msg := Message{En: "hello", Ar: "مرحبا"}
	assert.Equal(t, "مرحبا", msg.In("ar"))
	assert.Equal(t, "hello", msg.In("en"))
	assert.Equal(t, "hello", Message{En: "hello"}.In("ar"))
}

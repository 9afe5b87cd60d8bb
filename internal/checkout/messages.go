package checkout

// Message is a bilingual user-facing string. The storefront shows either
// side depending on the display language.
type Message struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

// In returns the text for the given language, falling back to English.
func (m Message) In(lang string) string {
	if lang == "ar" && m.Ar != "" {
		return m.Ar
	}
	return m.En
}

// Error implements error so a Message can travel as a localized failure.
func (m Message) Error() string {
	return m.En
}

var (
	msgNameRequired = Message{
		En: "First and last name are required",
		Ar: "الاسم الأول واسم العائلة مطلوبان",
	}
	msgNameInvalid = Message{
		En: "Name contains invalid characters",
		Ar: "الاسم يحتوي على أحرف غير صالحة",
	}
	msgEmailInvalid = Message{
		En: "Please enter a valid email address",
		Ar: "يرجى إدخال بريد إلكتروني صحيح",
	}
	msgPhoneInvalid = Message{
		En: "Please enter a valid phone number",
		Ar: "يرجى إدخال رقم هاتف صحيح",
	}
	msgAddressRequired = Message{
		En: "Address and city are required",
		Ar: "العنوان والمدينة مطلوبان",
	}
	msgPostalInvalid = Message{
		En: "Postal code must be 5 digits",
		Ar: "الرمز البريدي يجب أن يكون 5 أرقام",
	}
	msgPaymentMethodRequired = Message{
		En: "Please select a payment method",
		Ar: "يرجى اختيار طريقة الدفع",
	}
	msgShippingPaymentRequired = Message{
		En: "Please select how to pay the shipping fee",
		Ar: "يرجى اختيار طريقة دفع رسوم الشحن",
	}
	msgProofRequired = Message{
		En: "Please upload the payment proof",
		Ar: "يرجى رفع إثبات الدفع",
	}
	msgProofType = Message{
		En: "Only JPG, PNG and WebP images are allowed",
		Ar: "يسمح فقط بصور JPG و PNG و WebP",
	}
	msgProofTooLarge = Message{
		En: "Image must be 5MB or smaller",
		Ar: "يجب ألا يتجاوز حجم الصورة 5 ميجابايت",
	}
	msgSessionExpired = Message{
		En: "Your session has expired, please sign in again",
		Ar: "انتهت الجلسة، يرجى تسجيل الدخول مرة أخرى",
	}
	msgCouponInvalid = Message{
		En: "Coupon code is not valid",
		Ar: "كود الخصم غير صالح",
	}
	msgNetworkError = Message{
		En: "Something went wrong, please try again",
		Ar: "حدث خطأ، يرجى المحاولة مرة أخرى",
	}
	msgAlreadyConfirmed = Message{
		En: "This order has already been confirmed",
		Ar: "تم تأكيد هذا الطلب بالفعل",
	}
	msgRequestInFlight = Message{
		En: "Please wait for the current request to finish",
		Ar: "يرجى الانتظار حتى انتهاء الطلب الحالي",
	}
)

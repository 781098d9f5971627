package config

type PaymentConfig interface {
	GetPaymentGateway() string
	GetRazorpayKeyID() string
	GetRazorpayScriptURL() string
}

type Payment struct{}

var _ PaymentConfig = Payment{}

// GetPaymentGateway names the gateway whose script is preloaded at startup.
// The backend still decides the gateway per order.
func (Payment) GetPaymentGateway() string {
	return GetEnv("PAYMENT_GATEWAY", "razorpay")
}

func (Payment) GetRazorpayKeyID() string {
	return GetEnv("RAZORPAY_KEY_ID", "")
}

func (Payment) GetRazorpayScriptURL() string {
	return GetEnv("RAZORPAY_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js")
}

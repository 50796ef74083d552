package config

import (
	"os"
	"strconv"
)

// Pricing holds the checkout pricing rules. Amounts are in whole kronor,
// matching the stored prices.
type Pricing struct {
	FreeShippingThreshold int64
	ShippingFee           int64
	OrderNumberPrefix     string
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: 500,
		ShippingFee:           49,
		OrderNumberPrefix:     "AT",
	}
}

func PricingFromEnv() Pricing {
	p := DefaultPricing()
	if v := os.Getenv("FREE_SHIPPING_THRESHOLD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.FreeShippingThreshold = n
		}
	}
	if v := os.Getenv("SHIPPING_FEE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.ShippingFee = n
		}
	}
	if v := os.Getenv("ORDER_NUMBER_PREFIX"); v != "" {
		p.OrderNumberPrefix = v
	}
	return p
}

// Mail holds the transactional-email provider settings. An empty APIKey is a
// supported operating mode: the email service then skips sends instead of
// failing.
type Mail struct {
	APIKey      string
	APIBaseURL  string
	FromAddress string
}

func DefaultMail() Mail {
	return Mail{
		APIBaseURL:  "https://api.resend.com",
		FromAddress: "Atelje <orders@atelje.example>",
	}
}

func MailFromEnv() Mail {
	m := DefaultMail()
	if v := os.Getenv("MAIL_API_KEY"); v != "" {
		m.APIKey = v
	}
	if v := os.Getenv("MAIL_API_BASE_URL"); v != "" {
		m.APIBaseURL = v
	}
	if v := os.Getenv("MAIL_FROM_ADDRESS"); v != "" {
		m.FromAddress = v
	}
	return m
}

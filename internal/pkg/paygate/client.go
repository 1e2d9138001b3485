package paygate

import (
	"fmt"
	"net/url"
)

const paymentBaseURL = "https://auth.robokassa.ru/Merchant/Index.aspx"

// PaymentRequest describes a payment link to build
type PaymentRequest struct {
	InvoiceID   int64
	AmountCents int64
	Description string
	UserEmail   string
	ShpParams   map[string]string
}

// Client builds signed payment links for the gateway
type Client struct {
	config Config
}

// NewClient creates a gateway client
func NewClient(config Config) *Client {
	return &Client{config: config}
}

// PaymentURL returns the hosted checkout link for an order
func (c *Client) PaymentURL(req PaymentRequest) string {
	amount := FormatAmount(req.AmountCents)
	signature := BuildPaymentSignature(c.config, amount, req.InvoiceID, req.ShpParams)

	q := url.Values{}
	q.Set("MerchantLogin", c.config.MerchantLogin)
	q.Set("OutSum", amount)
	q.Set("InvId", fmt.Sprintf("%d", req.InvoiceID))
	q.Set("Description", req.Description)
	q.Set("SignatureValue", signature)
	if req.UserEmail != "" {
		q.Set("Email", req.UserEmail)
	}
	for k, v := range req.ShpParams {
		q.Set(k, v)
	}
	if c.config.TestMode {
		q.Set("IsTest", "1")
	}

	return paymentBaseURL + "?" + q.Encode()
}

// FormatAmount renders integer cents as the "123.45" string the
// gateway expects in both links and signatures.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

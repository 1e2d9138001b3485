package paygate

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func postResult(t *testing.T, form url.Values) (*ResultNotification, error) {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhooks/payment/result", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ParseResult(testConfig, req)
}

func TestParseResultValid(t *testing.T) {
	form := url.Values{}
	form.Set("OutSum", "250.00")
	form.Set("InvId", "7")
	form.Set("SignatureValue", md5Of("250.00:7:pass-two"))

	n, err := postResult(t, form)
	if err != nil {
		t.Fatalf("valid callback rejected: %v", err)
	}
	if n.InvoiceID != 7 {
		t.Fatalf("invoice = %d, want 7", n.InvoiceID)
	}
	if n.AmountCents != 25000 {
		t.Fatalf("amount = %d, want 25000", n.AmountCents)
	}
}

func TestParseResultAcceptsGET(t *testing.T) {
	q := url.Values{}
	q.Set("OutSum", "250.00")
	q.Set("InvId", "7")
	q.Set("SignatureValue", md5Of("250.00:7:pass-two"))

	req := httptest.NewRequest("GET", "/webhooks/payment/result?"+q.Encode(), nil)
	n, err := ParseResult(testConfig, req)
	if err != nil {
		t.Fatalf("GET callback rejected: %v", err)
	}
	if n.InvoiceID != 7 || n.AmountCents != 25000 {
		t.Fatalf("notification = %+v", n)
	}
}

func TestParseResultBadSignature(t *testing.T) {
	form := url.Values{}
	form.Set("OutSum", "250.00")
	form.Set("InvId", "7")
	form.Set("SignatureValue", md5Of("999.00:7:pass-two"))

	_, err := postResult(t, form)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestParseResultMissingFields(t *testing.T) {
	form := url.Values{}
	form.Set("OutSum", "250.00")

	_, err := postResult(t, form)
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestParseResultShpParamsSigned(t *testing.T) {
	form := url.Values{}
	form.Set("OutSum", "100.00")
	form.Set("InvId", "3")
	form.Set("shp_user", "u-1")
	form.Set("SignatureValue", md5Of("100.00:3:pass-two:shp_user=u-1"))

	n, err := postResult(t, form)
	if err != nil {
		t.Fatalf("valid callback rejected: %v", err)
	}
	if n.ShpParams["shp_user"] != "u-1" {
		t.Fatalf("shp params = %v", n.ShpParams)
	}

	// Tampering with the shp param breaks the signature
	form.Set("shp_user", "u-2")
	if _, err := postResult(t, form); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestSuccessResponse(t *testing.T) {
	if got := SuccessResponse(42); got != "OK42" {
		t.Fatalf("response = %q, want OK42", got)
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]int64{
		"100":    10000,
		"100.5":  10050,
		"100.50": 10050,
		"0.99":   99,
		"1.234":  123,
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAmount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		10000: "100.00",
		10050: "100.50",
		99:    "0.99",
		5:     "0.05",
	}
	for in, want := range cases {
		if got := FormatAmount(in); got != want {
			t.Errorf("FormatAmount(%d) = %q, want %q", in, got, want)
		}
	}
}

package paygate

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

var (
	ErrBadSignature = errors.New("paygate: invalid result signature")
	ErrBadPayload   = errors.New("paygate: malformed result payload")
)

// ResultNotification is a verified payment result callback
type ResultNotification struct {
	InvoiceID   int64
	AmountCents int64
	ShpParams   map[string]string
}

// ParseResult reads and verifies a result callback. The gateway sends
// either a POST form or a GET query string; FormValue covers both.
// Returns ErrBadSignature when the signature does not match.
func ParseResult(cfg Config, r *http.Request) (*ResultNotification, error) {
	if err := r.ParseForm(); err != nil {
		return nil, ErrBadPayload
	}

	outSum := r.FormValue("OutSum")
	invID := r.FormValue("InvId")
	signature := r.FormValue("SignatureValue")
	if outSum == "" || invID == "" || signature == "" {
		return nil, ErrBadPayload
	}

	shpParams := make(map[string]string)
	for key := range r.Form {
		if strings.HasPrefix(strings.ToLower(key), "shp_") {
			shpParams[key] = r.FormValue(key)
		}
	}

	if !VerifyResultSignature(cfg, outSum, invID, shpParams, signature) {
		return nil, ErrBadSignature
	}

	invoiceID, err := strconv.ParseInt(invID, 10, 64)
	if err != nil {
		return nil, ErrBadPayload
	}
	cents, err := ParseAmount(outSum)
	if err != nil {
		return nil, ErrBadPayload
	}

	return &ResultNotification{
		InvoiceID:   invoiceID,
		AmountCents: cents,
		ShpParams:   shpParams,
	}, nil
}

// SuccessResponse is the acknowledgement body the gateway expects
func SuccessResponse(invoiceID int64) string {
	return "OK" + strconv.FormatInt(invoiceID, 10)
}

// ParseAmount converts a gateway decimal string into integer cents
func ParseAmount(s string) (int64, error) {
	whole, frac, found := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	if !found {
		return units * 100, nil
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, err
	}
	return units*100 + cents, nil
}

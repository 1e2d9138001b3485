package paygate

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Config holds merchant credentials for the payment gateway.
// Password1 signs outgoing payment links, Password2 verifies result callbacks.
type Config struct {
	MerchantLogin string
	Password1     string
	Password2     string
	TestMode      bool
}

// BuildPaymentSignature signs an outgoing payment request:
// md5(login:amount:invoiceID[:shp_params]:password1)
func BuildPaymentSignature(cfg Config, amount string, invoiceID int64, shpParams map[string]string) string {
	parts := []string{cfg.MerchantLogin, amount, fmt.Sprintf("%d", invoiceID)}
	parts = append(parts, cfg.Password1)
	parts = append(parts, sortedShpPairs(shpParams)...)
	return md5Hex(strings.Join(parts, ":"))
}

// VerifyResultSignature checks the signature of a result callback:
// md5(amount:invoiceID[:shp_params]:password2), case-insensitive.
func VerifyResultSignature(cfg Config, amount string, invoiceID string, shpParams map[string]string, signature string) bool {
	parts := []string{amount, invoiceID, cfg.Password2}
	parts = append(parts, sortedShpPairs(shpParams)...)
	expected := md5Hex(strings.Join(parts, ":"))
	return strings.EqualFold(expected, signature)
}

// sortedShpPairs returns shp_ parameters as "key=value" sorted by key,
// the order the gateway requires inside the signature base string.
func sortedShpPairs(params map[string]string) []string {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return pairs
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

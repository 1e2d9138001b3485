package paygate

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"
)

var testConfig = Config{
	MerchantLogin: "reelforge",
	Password1:     "pass-one",
	Password2:     "pass-two",
}

func md5Of(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestBuildPaymentSignature(t *testing.T) {
	got := BuildPaymentSignature(testConfig, "100.00", 42, nil)
	want := md5Of("reelforge:100.00:42:pass-one")
	if got != want {
		t.Fatalf("signature = %s, want %s", got, want)
	}
}

func TestBuildPaymentSignatureWithShpParams(t *testing.T) {
	shp := map[string]string{
		"shp_user": "u-1",
		"shp_kind": "credits",
	}

	got := BuildPaymentSignature(testConfig, "100.00", 42, shp)
	// shp params sorted by key
	want := md5Of("reelforge:100.00:42:pass-one:shp_kind=credits:shp_user=u-1")
	if got != want {
		t.Fatalf("signature = %s, want %s", got, want)
	}
}

func TestVerifyResultSignature(t *testing.T) {
	sig := md5Of("250.00:7:pass-two")

	if !VerifyResultSignature(testConfig, "250.00", "7", nil, sig) {
		t.Fatal("valid signature rejected")
	}
	if !VerifyResultSignature(testConfig, "250.00", "7", nil, strings.ToUpper(sig)) {
		t.Fatal("uppercase signature rejected")
	}
	if VerifyResultSignature(testConfig, "250.00", "8", nil, sig) {
		t.Fatal("signature accepted for the wrong invoice")
	}
	if VerifyResultSignature(testConfig, "999.00", "7", nil, sig) {
		t.Fatal("signature accepted for the wrong amount")
	}
}

func TestVerifyResultSignatureWithShpParams(t *testing.T) {
	shp := map[string]string{"shp_user": "u-1"}
	sig := md5Of("250.00:7:pass-two:shp_user=u-1")

	if !VerifyResultSignature(testConfig, "250.00", "7", shp, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifyResultSignature(testConfig, "250.00", "7", map[string]string{"shp_user": "u-2"}, sig) {
		t.Fatal("signature accepted with altered shp param")
	}
}

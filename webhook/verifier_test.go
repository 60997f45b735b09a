package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsCorrectSignature(t *testing.T) {
	secret := []byte("webhook-secret")
	body := []byte(`{"event":"payment.captured"}`)

	v := NewVerifier(secret)
	if !v.Verify(body, sign(secret, body)) {
		t.Fatal("correctly signed body rejected")
	}
}

func TestVerifyRejectsFlippedByte(t *testing.T) {
	secret := []byte("webhook-secret")
	body := []byte(`{"event":"payment.captured"}`)
	signature := sign(secret, body)

	mutated := append([]byte(nil), body...)
	mutated[0] ^= 0x01

	v := NewVerifier(secret)
	if v.Verify(mutated, signature) {
		t.Fatal("mutated body accepted")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	signature := sign([]byte("other-secret"), body)

	v := NewVerifier([]byte("webhook-secret"))
	if v.Verify(body, signature) {
		t.Fatal("body signed with another secret accepted")
	}
}

func TestVerifyRejectsGarbageSignatures(t *testing.T) {
	v := NewVerifier([]byte("webhook-secret"))
	body := []byte(`{}`)

	for _, signature := range []string{"", "deadbeef", "not hex at all"} {
		if v.Verify(body, signature) {
			t.Fatalf("signature %q accepted", signature)
		}
	}
}

func TestVerifyEmptySecretRefusesEverything(t *testing.T) {
	v := NewVerifier(nil)
	body := []byte(`{}`)
	if v.Verify(body, sign(nil, body)) {
		t.Fatal("verifier with no secret accepted a delivery")
	}
}

func TestParseEvent(t *testing.T) {
	cases := []struct {
		name string
		body string
		want Event
	}{
		{
			name: "captured",
			body: `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`,
			want: Event{Kind: KindCaptured, OrderID: "order_1", PaymentID: "pay_1"},
		},
		{
			name: "failed",
			body: `{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_2"}}}}`,
			want: Event{Kind: KindFailed, OrderID: "order_2", PaymentID: "pay_2"},
		},
		{
			name: "unhandled kind",
			body: `{"event":"refund.processed","payload":{"payment":{"entity":{"id":"pay_3","order_id":"order_3"}}}}`,
			want: Event{Kind: KindIgnored, OrderID: "order_3", PaymentID: "pay_3"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tc.body))
			if err != nil {
				t.Fatalf("ParseEvent failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ParseEvent = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseEventMalformed(t *testing.T) {
	if _, err := ParseEvent([]byte(`{not json`)); err == nil {
		t.Fatal("ParseEvent accepted malformed JSON")
	}
}

package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"
)

func buildSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signed := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signed))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"checkout.session.completed","data":{"object":{}}}`)
	timestamp := time.Now().Unix()

	header := buildSignatureHeader(secret, payload, timestamp)
	if err := VerifySignature(payload, header, secret); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	if err := VerifySignature(payload, buildSignatureHeader("wrong", payload, timestamp), secret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
	if err := VerifySignature(payload, "", secret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature on empty header, got %v", err)
	}
	if err := VerifySignature(payload, header, ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature on empty secret, got %v", err)
	}

	// Tampered body fails even with a well-formed header.
	if err := VerifySignature([]byte(`{"id":"evt_456"}`), header, secret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature on tampered payload, got %v", err)
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_replay","type":"checkout.session.completed","data":{"object":{}}}`)

	// A correctly signed delivery outside the tolerance window is a replay.
	stale := time.Now().Add(-signatureTolerance - time.Minute).Unix()
	if err := VerifySignature(payload, buildSignatureHeader(secret, payload, stale), secret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected stale timestamp rejection, got %v", err)
	}

	future := time.Now().Add(signatureTolerance + time.Minute).Unix()
	if err := VerifySignature(payload, buildSignatureHeader(secret, payload, future), secret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected future timestamp rejection, got %v", err)
	}

	if err := VerifySignature(payload, "t=abc,v1=deadbeef", secret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected non-numeric timestamp rejection, got %v", err)
	}

	recent := time.Now().Add(-time.Minute).Unix()
	if err := VerifySignature(payload, buildSignatureHeader(secret, payload, recent), secret); err != nil {
		t.Fatalf("recent timestamp must verify: %v", err)
	}
}

func TestItemsMetadataRoundTrip(t *testing.T) {
	encoded := EncodeItemsMetadata([]MetadataItem{
		{ProductID: "123456789", BinaryID: "987654321", Quantity: 1},
		{ProductID: "123456790", Quantity: 2},
	})
	if encoded == "" {
		t.Fatal("encode returned empty snapshot")
	}

	items, err := DecodeItemsMetadata(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].BinaryID != "987654321" || items[1].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", items)
	}

	for _, raw := range []string{"", "not json", "[]", `[{"productId":"","quantity":1}]`, `[{"productId":"1","quantity":0}]`} {
		if _, err := DecodeItemsMetadata(raw); !errors.Is(err, ErrInvalidItemsMetadata) {
			t.Fatalf("want invalid items metadata for %q, got %v", raw, err)
		}
	}
}

func TestParseEventAndSession(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"created": 1756700000,
		"data": {
			"object": {
				"id": "cs_test_abc",
				"client_reference_id": "123456789",
				"payment_intent": "pi_1",
				"payment_status": "paid",
				"status": "complete",
				"amount_total": 14900,
				"currency": "eur",
				"customer_details": {
					"email": "client@exemple.fr",
					"name": "Jean Dupont",
					"address": {"line1": "1 rue de la Paix", "postal_code": "75002", "city": "Paris", "country": "FR"}
				},
				"metadata": {"orderId": "123456789", "orderNumber": "PT0000000001"}
			}
		}
	}`)

	event, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event.ID != "evt_1" || event.Type != "checkout.session.completed" {
		t.Fatalf("unexpected envelope: %+v", event)
	}

	session, err := event.Session()
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if session.ID != "cs_test_abc" {
		t.Fatalf("unexpected session id %q", session.ID)
	}
	if session.AmountTotal != 14900 || session.PaymentStatus != "paid" {
		t.Fatalf("unexpected session fields: %+v", session)
	}
	if session.Metadata["orderId"] != "123456789" {
		t.Fatalf("metadata not decoded: %+v", session.Metadata)
	}
	if session.CustomerDetails.Address.City != "Paris" {
		t.Fatalf("address not decoded: %+v", session.CustomerDetails)
	}
}

func TestParseEventRejectsGarbage(t *testing.T) {
	if _, err := ParseEvent([]byte("not json")); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("want invalid payload, got %v", err)
	}
	if _, err := ParseEvent([]byte(`{"id":"","type":""}`)); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("want invalid event, got %v", err)
	}
}

package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
)

func TestEncodeIntoEmptyAnnotation(t *testing.T) {
	rec := entity.PaymentRecord{Provider: "dana", ExternalID: "PAY1", Status: "PENDING"}

	got := Encode(rec, "")

	assert.Equal(t, "[PAYMENT] dana:PAY1:PENDING", got)
}

func TestEncodePrependsAheadOfLifecycleTag(t *testing.T) {
	rec := entity.PaymentRecord{Provider: "dana", ExternalID: "PAY1", Status: "PENDING"}

	got := Encode(rec, "[WAITING_PAYMENT] customer notes")

	assert.Equal(t, "[PAYMENT] dana:PAY1:PENDING\n[WAITING_PAYMENT] customer notes", got)
}

func TestEncodeReplacesPreviousPaymentLine(t *testing.T) {
	annotation := "[PAYMENT] dana:PAY1:PENDING\ncustomer notes"
	rec := entity.PaymentRecord{Provider: "gopay", ExternalID: "PAY2", Status: "completed"}

	got := Encode(rec, annotation)

	assert.Equal(t, "[PAYMENT] gopay:PAY2:completed\ncustomer notes", got)
}

func TestEncodeIsIdempotent(t *testing.T) {
	rec := entity.PaymentRecord{Provider: "dana", ExternalID: "PAY1", Status: "PENDING"}

	once := Encode(rec, "customer notes")
	twice := Encode(rec, once)

	assert.Equal(t, once, twice)
}

func TestDecode(t *testing.T) {
	rec, ok := Decode("[PAYMENT] dana:PAY1:PENDING\n[WAITING_PAYMENT] customer notes")

	require.True(t, ok)
	assert.Equal(t, entity.PaymentRecord{Provider: "dana", ExternalID: "PAY1", Status: "PENDING"}, rec)
}

func TestDecodeAbsent(t *testing.T) {
	_, ok := Decode("")
	assert.False(t, ok)

	_, ok = Decode("[WAITING_PAYMENT] customer notes")
	assert.False(t, ok)
}

func TestDecodeMalformedLine(t *testing.T) {
	cases := []string{
		"[PAYMENT] dana:PAY1",
		"[PAYMENT] dana:PAY:1:PENDING",
		"[PAYMENT] ",
	}
	for _, annotation := range cases {
		t.Run(annotation, func(t *testing.T) {
			_, ok := Decode(annotation)
			assert.False(t, ok)
		})
	}
}

func TestSettled(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{"completed", true},
		{"COMPLETED", true},
		{"succeeded", true},
		{"Paid", true},
		{"PENDING", false},
		{"failed", false},
		{"authorized", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			got := Settled(entity.PaymentRecord{Provider: "dana", ExternalID: "PAY1", Status: tc.status})
			assert.Equal(t, tc.want, got)
		})
	}
}

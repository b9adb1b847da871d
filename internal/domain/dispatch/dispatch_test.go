package dispatch

import (
	"errors"
	"testing"

	"github.com/oggyb/smsoffice-gateway/smsoffice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_KeepsInputAsGiven(t *testing.T) {
	numbers := []string{"+995555000001", "+995555000002"}
	d := New("T", "", numbers)
	numbers[0] = "changed"

	assert.NotEqual(t, "changed", d.Destinations[0])
	assert.Empty(t, d.Content)
	assert.NotZero(t, d.ID)
	assert.Empty(t, New("T", "hi", nil).Destinations)
}

func TestRecord(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		outcome Outcome
		code    int
		detail  string
	}{
		{"success", nil, OutcomeSuccess, 0, ""},
		{"subscription", &smsoffice.Error{Category: smsoffice.CategorySubscription, Code: 80, Message: "API key isn't valid"}, OutcomeSubscription, 80, "API key isn't valid"},
		{"internal", &smsoffice.Error{Category: smsoffice.CategoryInternalServer, Code: -100, Message: "Server is temporarily unavailable"}, OutcomeInternalServer, -100, "Server is temporarily unavailable"},
		{"status", &smsoffice.Error{Category: smsoffice.CategoryBadRequest, Message: "status code 503"}, OutcomeBadRequest, 0, "status code 503"},
		{"foreign error", errors.New("boom"), OutcomeBadRequest, 0, "boom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := New("T", "hello", []string{"+995500000000"})
			d.Record(tc.err)

			assert.Equal(t, tc.outcome, d.Outcome)
			assert.Equal(t, tc.code, d.ErrorCode)
			assert.Equal(t, tc.detail, d.Detail)
		})
	}
}

func TestErr_RoundTripsCategory(t *testing.T) {
	d := New("T", "hello", []string{"+995500000000"})
	d.Record(&smsoffice.Error{Category: smsoffice.CategorySubscription, Code: 20, Message: "Not enough funds on balance"})

	err := d.Err()
	require.ErrorIs(t, err, smsoffice.ErrSubscription)
	assert.Equal(t, "Subscription has problem: Not enough funds on balance", err.Error())

	d.Record(nil)
	assert.NoError(t, d.Err())
}

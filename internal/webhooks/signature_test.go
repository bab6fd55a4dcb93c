package webhooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		payload string
		want    string
	}{
		{
			name:    "known vector",
			secret:  "s",
			payload: `{"a":1}`,
			want:    "37beaf650f70b40ec9706929c2e9d835cbd63729988f48781e6383a147215f07",
		},
		{
			name:    "payment event payload",
			secret:  "whsec_test",
			payload: `{"payment":{"id":"pay_1"}}`,
			want:    "ebee9b13b91a9a886bf49971ffd949c6e4d0e9b49d1ef618377cd45084681cda",
		},
		{
			name:    "empty secret still signs",
			secret:  "",
			payload: `{"a":1}`,
			want:    "e0baad27ae5335a93e2979e6693e7630de7d66b4d5bfd687cdbf1f0018f79cb8",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sign(tt.secret, []byte(tt.payload)))
		})
	}
}

func TestSignIsByteExact(t *testing.T) {
	// Whitespace differences change the signature, so the signed bytes
	// must be exactly the bytes delivered.
	a := Sign("secret", []byte(`{"a":1}`))
	b := Sign("secret", []byte(`{"a": 1}`))
	assert.NotEqual(t, a, b)
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"payment":{"id":"pay_1"}}`)
	sig := Sign("whsec_test", payload)

	assert.True(t, Verify("whsec_test", payload, sig))
	assert.False(t, Verify("whsec_other", payload, sig))
	assert.False(t, Verify("whsec_test", []byte(`{"payment":{"id":"pay_2"}}`), sig))
	assert.False(t, Verify("whsec_test", payload, "deadbeef"))
}

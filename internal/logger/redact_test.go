package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	payload := map[string]any{
		"user_id":       "u-1",
		"password":      "hunter2",
		"Authorization": "Bearer abc",
		"nested": map[string]any{
			"pin":    "1234",
			"amount": "100.00",
		},
	}

	out := Redact(payload)

	assert.Equal(t, "u-1", out["user_id"])
	assert.Equal(t, "***REDACTED***", out["password"])
	assert.Equal(t, "***REDACTED***", out["Authorization"])

	nested := out["nested"].(map[string]any)
	assert.Equal(t, "***REDACTED***", nested["pin"])
	assert.Equal(t, "100.00", nested["amount"])

	// input untouched
	assert.Equal(t, "hunter2", payload["password"])
}

func TestRedactStrings(t *testing.T) {
	params := map[string]string{
		"consumerNumber": "CN-42",
		"authToken":      "xyz",
	}

	out := RedactStrings(params)
	assert.Equal(t, "CN-42", out["consumerNumber"])
	assert.Equal(t, "***REDACTED***", out["authToken"])
}

func TestRedactNil(t *testing.T) {
	assert.Nil(t, Redact(nil))
	assert.Nil(t, RedactStrings(nil))
}

package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMajor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole and fraction", input: "123.45", want: 12345},
		{name: "whole only", input: "100", want: 10000},
		{name: "single fraction digit", input: "99.5", want: 9950},
		{name: "leading dot", input: ".75", want: 75},
		{name: "zero", input: "0", want: 0},
		{name: "negative", input: "-10.01", want: -1001},
		{name: "surrounding spaces", input: " 42.00 ", want: 4200},
		{name: "too many fraction digits", input: "1.999", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMajor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "123.45", FormatMinor(12345))
	assert.Equal(t, "0.05", FormatMinor(5))
	assert.Equal(t, "-1.00", FormatMinor(-100))
	assert.Equal(t, "0.00", FormatMinor(0))
}

func TestErrorCodeMatching(t *testing.T) {
	err := NewInsufficientFunds("balance too low")
	assert.Equal(t, CodeInsufficientFunds, CodeOf(err))

	wrapped := NewInternal("distribution failed", err)
	assert.Equal(t, CodeInternal, CodeOf(wrapped))
}

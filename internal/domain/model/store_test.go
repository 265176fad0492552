package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStoreStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want StoreStatus
		ok   bool
	}{
		{raw: "active", want: StoreStatusActive, ok: true},
		{raw: "INACTIVE", want: StoreStatusInactive, ok: true},
		{raw: " Active ", want: StoreStatusActive, ok: true},
		{raw: "closed", ok: false},
		{raw: "", ok: false},
	}

	for _, tc := range tests {
		got, ok := ParseStoreStatus(tc.raw)
		assert.Equalf(t, tc.ok, ok, "raw %q", tc.raw)
		if tc.ok {
			assert.Equal(t, tc.want, got)
		}
	}
}

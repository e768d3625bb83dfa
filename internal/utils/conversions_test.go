package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-gapi-session/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestToStringSlice(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{name: "space separated", in: "openid  email profile", want: []string{"openid", "email", "profile"}},
		{name: "string slice", in: []string{"openid"}, want: []string{"openid"}},
		{name: "any slice skips non strings", in: []any{"openid", 3, "email"}, want: []string{"openid", "email"}},
		{name: "unsupported", in: 42, want: nil},
		{name: "nil", in: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, utils.ToStringSlice(tt.in))
		})
	}
}

package sqldb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDollarPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"none", "SELECT 1", "SELECT 1"},
		{"ordered", "UPDATE t SET a = ? WHERE b = ? AND c IS NULL", "UPDATE t SET a = $1 WHERE b = $2 AND c IS NULL"},
		{"quoted literal kept", "SELECT '?' FROM t WHERE id = ?", "SELECT '?' FROM t WHERE id = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DollarPlaceholders(tt.in))
		})
	}
}

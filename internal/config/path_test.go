package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yobazy/MyFinance/internal/config"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("MYFINANCE_TEST_DIR", "/var/data")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty", path: "", want: ""},
		{name: "plain path untouched", path: "/tmp/finance.db", want: "/tmp/finance.db"},
		{name: "tilde alone", path: "~", want: home},
		{name: "tilde prefix", path: "~/finance.db", want: filepath.Join(home, "finance.db")},
		{name: "env var", path: "$MYFINANCE_TEST_DIR/finance.db", want: "/var/data/finance.db"},
		{name: "tilde mid-path untouched", path: "/srv/~backup", want: "/srv/~backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.ExpandPath(tt.path))
		})
	}
}

package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familieapp/familieapp/internal/user"
)

func TestIsKnown(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"rino", true},
		{"iselin", true},
		{"fia", true},
		{"rakel", true},
		{"hugo", true},
		{"", false},
		{"Rino", false},
		{"rino ", false},
		{"admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, user.IsKnown(tt.id))
		})
	}
}

func TestFind(t *testing.T) {
	u, ok := user.Find("hugo")
	require.True(t, ok)
	assert.Equal(t, user.Hugo, u.ID)
	assert.Equal(t, "Hugo", u.Name)
	assert.Equal(t, "#818cf8", u.Color)
	assert.Equal(t, "#060c25", u.TextColor)

	_, ok = user.Find("nobody")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	all := user.All()
	require.Len(t, all, 5)
	all[0].Name = "changed"

	assert.Equal(t, "Rino", user.All()[0].Name)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Rakel", user.DisplayName("rakel", "familie"))
	assert.Equal(t, "familie", user.DisplayName("ghost", "familie"))
}

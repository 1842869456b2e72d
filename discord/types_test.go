package discord

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscriminatorDecoding(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected Discriminator
		wantErr  bool
	}{
		{name: "string", payload: `{"discriminator":"0042"}`, expected: "0042"},
		{name: "number", payload: `{"discriminator":42}`, expected: "42"},
		{name: "null", payload: `{"discriminator":null}`, expected: ""},
		{name: "missing", payload: `{}`, expected: ""},
		{name: "object", payload: `{"discriminator":{}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			err := json.Unmarshal([]byte(tt.payload), &u)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, u.Discriminator)
		})
	}
}

func TestUserTag(t *testing.T) {
	assert.Equal(t, "nelly#1337", (&User{Username: "nelly", Discriminator: "1337"}).Tag())
	assert.Equal(t, "nelly", (&User{Username: "nelly", Discriminator: "0"}).Tag())
	assert.Equal(t, "nelly", (&User{Username: "nelly"}).Tag())
}

func TestUserAvatarURL(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected string
	}{
		{
			name:     "static avatar",
			user:     User{ID: "80351110224678912", Avatar: "8342729096ea3675442027381ff50dfe"},
			expected: "https://cdn.discordapp.com/avatars/80351110224678912/8342729096ea3675442027381ff50dfe.png",
		},
		{
			name:     "animated avatar",
			user:     User{ID: "1", Avatar: "a_1269e74af4df7417b13759eae50c83dc"},
			expected: "https://cdn.discordapp.com/avatars/1/a_1269e74af4df7417b13759eae50c83dc.gif",
		},
		{
			name:     "legacy default",
			user:     User{ID: "1", Discriminator: "1337"},
			expected: "https://cdn.discordapp.com/embed/avatars/2.png",
		},
		{
			name:     "migrated default",
			user:     User{ID: "80351110224678912", Discriminator: "0"},
			expected: "https://cdn.discordapp.com/embed/avatars/5.png",
		},
		{
			name:     "unparseable id",
			user:     User{ID: "abc"},
			expected: "https://cdn.discordapp.com/embed/avatars/0.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.AvatarURL())
		})
	}
}

func TestPremiumType(t *testing.T) {
	assert.False(t, (&User{}).HasNitro())
	assert.True(t, (&User{PremiumType: PremiumBasic}).HasNitro())
	assert.Equal(t, "nitro_classic", PremiumClassic.String())
	assert.Equal(t, "premium(9)", PremiumType(9).String())
}

func TestAccountJSON(t *testing.T) {
	data, err := json.Marshal(InvalidAccount{User: User{ID: "1"}, Token: "t"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "t", decoded["token"])
	assert.Equal(t, "1", decoded["user"].(map[string]any)["id"])
}

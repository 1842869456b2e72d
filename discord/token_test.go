package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDFromToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		id     string
		wantOK bool
	}{
		{name: "standard token", token: "MTIzNDU2Nzg5MDEyMzQ1Njc4.GhVqkA.signature", id: "123456789012345678", wantOK: true},
		{name: "padded segment", token: "MTI=.x.y", id: "12", wantOK: true},
		{name: "surrounding whitespace", token: "  MTIzNDU2Nzg5MDEyMzQ1Njc4.a.b\n", id: "123456789012345678", wantOK: true},
		{name: "round trip", token: EncodeUserID("80351110224678912") + ".a.b", id: "80351110224678912", wantOK: true},
		{name: "mfa token", token: "mfa.abcdef"},
		{name: "no separator", token: "MTIzNDU2Nzg5MDEyMzQ1Njc4"},
		{name: "not base64", token: "!!!.a.b"},
		{name: "not numeric", token: EncodeUserID("wumpus") + ".a.b"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := UserIDFromToken(tt.token)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const cdnBaseURL = "https://cdn.discordapp.com"

// PremiumType is the Nitro subscription level of a user
type PremiumType int

const (
	PremiumNone PremiumType = iota
	PremiumClassic
	PremiumNitro
	PremiumBasic
)

func (p PremiumType) String() string {
	switch p {
	case PremiumNone:
		return "none"
	case PremiumClassic:
		return "nitro_classic"
	case PremiumNitro:
		return "nitro"
	case PremiumBasic:
		return "nitro_basic"
	default:
		return fmt.Sprintf("premium(%d)", int(p))
	}
}

// Discriminator is the legacy four-digit user suffix. The gateway sends it as a
// string, older payloads as a number; both decode.
type Discriminator string

// UnmarshalJSON accepts a JSON string or number.
func (d *Discriminator) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Discriminator(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("discriminator must be a string or number: %w", err)
	}
	*d = Discriminator(n.String())
	return nil
}

// User is the account record returned by /users/{id}
type User struct {
	ID            string        `json:"id"`
	Username      string        `json:"username"`
	Discriminator Discriminator `json:"discriminator"`
	GlobalName    string        `json:"global_name,omitempty"`
	Avatar        string        `json:"avatar"`
	Flags         int64         `json:"flags"`
	PublicFlags   int64         `json:"public_flags,omitempty"`
	PremiumType   PremiumType   `json:"premium_type,omitempty"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Verified      bool          `json:"verified"`
	MFAEnabled    bool          `json:"mfa_enabled,omitempty"`
	Locale        string        `json:"locale,omitempty"`
}

// HasNitro reports whether the user has any Nitro subscription
func (u *User) HasNitro() bool {
	return u.PremiumType != PremiumNone
}

// Tag returns username#discriminator, or just the username for migrated accounts.
func (u *User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + string(u.Discriminator)
}

// AvatarURL returns the CDN URL of the user's avatar, or of the default avatar when unset.
func (u *User) AvatarURL() string {
	if u.Avatar == "" {
		return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBaseURL, u.defaultAvatarIndex())
	}
	ext := "png"
	if len(u.Avatar) > 2 && u.Avatar[:2] == "a_" {
		ext = "gif"
	}
	return fmt.Sprintf("%s/avatars/%s/%s.%s", cdnBaseURL, u.ID, u.Avatar, ext)
}

func (u *User) defaultAvatarIndex() uint64 {
	if u.Discriminator != "" && u.Discriminator != "0" {
		if n, err := strconv.ParseUint(string(u.Discriminator), 10, 64); err == nil {
			return n % 5
		}
	}
	id, err := strconv.ParseUint(u.ID, 10, 64)
	if err != nil {
		return 0
	}
	return (id >> 22) % 6
}

// BillingCountry is returned by /users/@me/billing/country-code
type BillingCountry struct {
	CountryCode string `json:"country_code"`
}

// Account groups every working token that belongs to one user
type Account struct {
	User   User     `json:"user"`
	Tokens []string `json:"tokens"`
}

// InvalidAccount is a token the gateway rejected. User carries only the ID
// recovered from the token, when it could be decoded.
type InvalidAccount struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

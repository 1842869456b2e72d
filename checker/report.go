package checker

import (
	"time"

	"github.com/gatewaycheck/tokencheck/discord"
)

// Report is the grouped outcome of a Check
type Report struct {
	// Valid holds one entry per account, tokens in input order.
	Valid []discord.Account `json:"valid"`
	// Invalid holds every rejected token.
	Invalid []discord.InvalidAccount `json:"invalid"`
	// Countries maps user IDs to billing country codes when billing lookups ran.
	Countries map[string]string `json:"countries,omitempty"`
	Summary   Summary           `json:"summary"`
	Duration  time.Duration     `json:"duration"`
}

// Summary counts tokens and the accounts they resolved to
type Summary struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Invalid    int `json:"invalid"`
	Accounts   int `json:"accounts"`
	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
	Nitro      int `json:"nitro"`
}

// Verified returns the accounts with a verified email
func (r *Report) Verified() []discord.Account {
	return r.filter(func(u *discord.User) bool { return u.Verified })
}

// Unverified returns the accounts without a verified email
func (r *Report) Unverified() []discord.Account {
	return r.filter(func(u *discord.User) bool { return !u.Verified })
}

// Nitro returns the accounts with a Nitro subscription
func (r *Report) Nitro() []discord.Account {
	return r.filter(func(u *discord.User) bool { return u.HasNitro() })
}

func (r *Report) filter(keep func(*discord.User) bool) []discord.Account {
	var out []discord.Account
	for i := range r.Valid {
		if keep(&r.Valid[i].User) {
			out = append(out, r.Valid[i])
		}
	}
	return out
}

func buildReport(results []result) *Report {
	report := &Report{
		Valid:   []discord.Account{},
		Invalid: []discord.InvalidAccount{},
	}
	byUser := make(map[string]int)

	for _, res := range results {
		if res.user == nil {
			invalid := discord.InvalidAccount{Token: res.token}
			if id, ok := discord.UserIDFromToken(res.token); ok {
				invalid.User.ID = id
			}
			report.Invalid = append(report.Invalid, invalid)
			continue
		}

		if res.country != "" {
			if report.Countries == nil {
				report.Countries = make(map[string]string)
			}
			report.Countries[res.user.ID] = res.country
		}

		if idx, ok := byUser[res.user.ID]; ok {
			report.Valid[idx].Tokens = append(report.Valid[idx].Tokens, res.token)
			continue
		}
		byUser[res.user.ID] = len(report.Valid)
		report.Valid = append(report.Valid, discord.Account{User: *res.user, Tokens: []string{res.token}})
	}

	s := &report.Summary
	s.Total = len(results)
	s.Invalid = len(report.Invalid)
	s.Valid = s.Total - s.Invalid
	s.Accounts = len(report.Valid)
	for i := range report.Valid {
		u := &report.Valid[i].User
		if u.Verified {
			s.Verified++
		} else {
			s.Unverified++
		}
		if u.HasNitro() {
			s.Nitro++
		}
	}
	return report
}

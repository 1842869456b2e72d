// Package discord provides typed accessors for the gateway's user resources.
// Every accessor delegates to the rate-limited client and reports failure as nil.
package discord

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	gwhttp "github.com/gatewaycheck/tokencheck/http"
	"github.com/gatewaycheck/tokencheck/logger"
)

const (
	// CurrentUser identifies the user that owns the supplied token
	CurrentUser = "@me"

	usersURI          = "/users/"
	billingCountryURI = "/users/@me/billing/country-code"
)

// RequestConfig carries the caller's options for one accessor call. It is passed
// through to the client unchanged; the accessor only supplies the URI.
type RequestConfig struct {
	// Data is sent as the JSON body when non-nil.
	Data any `validate:"-"`
	// Token is sent verbatim in the Authorization header.
	Token string
	// Delay is waited before the first attempt.
	Delay time.Duration `validate:"min=0"`
	// Method defaults to GET.
	Method string `validate:"omitempty,oneof=GET POST PUT DELETE"`
}

// API exposes the user resources of the gateway
type API struct {
	client   gwhttp.Client
	logger   logger.Logger
	validate *validator.Validate
}

// New creates an API on top of client
func New(client gwhttp.Client, log logger.Logger) *API {
	if log == nil {
		log = logger.Nop()
	}
	return &API{
		client:   client,
		logger:   log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// FetchUser returns the user with userID, or the token's own user when userID is
// empty or "@me". Any failure yields nil.
func (a *API) FetchUser(ctx context.Context, userID string, cfg RequestConfig) *User {
	if userID == "" {
		userID = CurrentUser
	}

	req, ok := a.request(usersURI+url.PathEscape(userID), cfg)
	if !ok {
		return nil
	}

	var user User
	if !a.client.ExecuteInto(ctx, req, &user) {
		return nil
	}
	return &user
}

// FetchBillingCountry returns the billing country of the token's user, or nil.
func (a *API) FetchBillingCountry(ctx context.Context, cfg RequestConfig) *BillingCountry {
	req, ok := a.request(billingCountryURI, cfg)
	if !ok {
		return nil
	}

	var country BillingCountry
	if !a.client.ExecuteInto(ctx, req, &country) {
		return nil
	}
	return &country
}

// VerifyToken reports whether token is accepted by the gateway
func (a *API) VerifyToken(ctx context.Context, token string) bool {
	req, ok := a.request(usersURI+CurrentUser, RequestConfig{Token: token})
	if !ok {
		return false
	}
	return a.client.Check(ctx, req)
}

// request validates cfg and turns it into a client request for uri
func (a *API) request(uri string, cfg RequestConfig) (*gwhttp.Request, bool) {
	cfg.Method = strings.ToUpper(cfg.Method)
	if err := a.validate.Struct(cfg); err != nil {
		a.logger.Warn().
			Err(err).
			Str("uri", uri).
			Msg("invalid request config")
		return nil, false
	}

	return &gwhttp.Request{
		URI:    uri,
		Method: cfg.Method,
		Body:   cfg.Data,
		Token:  cfg.Token,
		Delay:  cfg.Delay,
	}, true
}

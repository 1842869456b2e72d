// Package fakegateway runs an in-process stand-in for the user gateway. It serves
// /users/@me, /users/{id} and the billing country resource, and rate-limits each
// token with a token bucket, answering 429 with a retry_after body.
package fakegateway

import (
	"context"
	"encoding/binary"
	goerrors "errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/gatewaycheck/tokencheck/discord"
	"github.com/gatewaycheck/tokencheck/logger"
)

const (
	// DefaultRate is the per-token request rate per second
	DefaultRate = 5.0
	// DefaultBurst is the per-token bucket size
	DefaultBurst = 5
	// DefaultCountryCode is answered for users without an explicit billing country
	DefaultCountryCode = "US"

	serviceName     = "fakegateway"
	shutdownTimeout = 5 * time.Second
)

// RecordedRequest is one request the gateway answered
type RecordedRequest struct {
	ID            string
	Method        string
	Path          string
	Authorization string
	Status        int
}

// Option configures a Server
type Option func(*Server)

// WithRateLimit sets the per-token rate and burst. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.rate = perSecond
		s.burst = burst
	}
}

// WithTracerProvider traces every request with tp (default: the global provider)
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// Server is the fake gateway
type Server struct {
	echo           *echo.Echo
	logger         logger.Logger
	rate           float64
	burst          int
	tracerProvider trace.TracerProvider

	mu       sync.RWMutex
	byToken  map[string]string
	users    map[string]discord.User
	billing  map[string]string
	requests []RecordedRequest
}

// New creates a fake gateway with its routes and middlewares registered
func New(log logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		logger:  log,
		rate:    DefaultRate,
		burst:   DefaultBurst,
		byToken: make(map[string]string),
		users:   make(map[string]discord.User),
		billing: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracerProvider == nil {
		s.tracerProvider = otel.GetTracerProvider()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(otelecho.Middleware(serviceName, otelecho.WithTracerProvider(s.tracerProvider)))
	e.Use(s.record())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	}))
	e.Use(RateLimit(s.rate, s.burst))

	users := e.Group("/users", s.authenticate)
	users.GET("/@me", s.currentUser)
	users.GET("/@me/billing/country-code", s.billingCountry)
	users.GET("/:id", s.userByID)

	s.echo = e
	return s
}

// Handler returns the gateway as an http.Handler, e.g. for httptest.NewServer
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on address until Shutdown is called
func (s *Server) Start(address string) error {
	s.logger.Info().
		Str("address", address).
		Float64("rate", s.rate).
		Int("burst", s.burst).
		Msg("Starting fake gateway")

	if err := s.echo.Start(address); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// AddUser registers user and the tokens that authenticate as it.
// A user without an ID gets a generated one.
func (s *Server) AddUser(user discord.User, tokens ...string) discord.User {
	if user.ID == "" {
		user.ID = NewUserID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	for _, token := range tokens {
		s.byToken[token] = user.ID
	}
	return user
}

// SetBillingCountry sets the billing country answered for userID
func (s *Server) SetBillingCountry(userID, countryCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billing[userID] = countryCode
}

// Requests returns every request answered so far, rate-limited ones included
func (s *Server) Requests() []RecordedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// NewUserID returns a random numeric user ID
func NewUserID() string {
	id := uuid.New()
	return strconv.FormatUint(binary.BigEndian.Uint64(id[:8])>>1, 10)
}

// NewToken returns a token whose first segment decodes to userID
func NewToken(userID string) string {
	return discord.EncodeUserID(userID) + "." + strconv.FormatInt(time.Now().Unix(), 36) + "." + uuid.NewString()
}

func (s *Server) record() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			rec := RecordedRequest{
				ID:            c.Response().Header().Get(echo.HeaderXRequestID),
				Method:        req.Method,
				Path:          req.URL.Path,
				Authorization: req.Header.Get(echo.HeaderAuthorization),
				Status:        c.Response().Status,
			}

			s.mu.Lock()
			s.requests = append(s.requests, rec)
			s.mu.Unlock()

			s.logger.Debug().
				Str("request_id", rec.ID).
				Str("method", rec.Method).
				Str("path", rec.Path).
				Int("status", rec.Status).
				Msg("fake gateway request")
			return nil
		}
	}
}

// authenticate resolves the Authorization header to a user
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(echo.HeaderAuthorization)

		s.mu.RLock()
		userID, ok := s.byToken[token]
		s.mu.RUnlock()
		if token == "" || !ok {
			return errUnauthorized()
		}

		c.Set("user_id", userID)
		return next(c)
	}
}

func (s *Server) currentUser(c echo.Context) error {
	user, ok := s.lookup(c.Get("user_id").(string))
	if !ok {
		return errUnauthorized()
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) userByID(c echo.Context) error {
	user, ok := s.lookup(c.Param("id"))
	if !ok {
		return errUnknownUser()
	}
	// other users only expose their public profile
	return c.JSON(http.StatusOK, discord.User{
		ID:            user.ID,
		Username:      user.Username,
		Discriminator: user.Discriminator,
		GlobalName:    user.GlobalName,
		Avatar:        user.Avatar,
		PublicFlags:   user.PublicFlags,
	})
}

func (s *Server) billingCountry(c echo.Context) error {
	userID := c.Get("user_id").(string)

	s.mu.RLock()
	code, ok := s.billing[userID]
	s.mu.RUnlock()
	if !ok {
		code = DefaultCountryCode
	}
	return c.JSON(http.StatusOK, discord.BillingCountry{CountryCode: code})
}

func (s *Server) lookup(userID string) (discord.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	return user, ok
}

// Package auth signs customers in with a one-time code sent by SMS. The SMS
// service sits behind Provider; Authenticator owns the in-flight
// verification and exposes the observable sign-in state.
package auth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Provider error codes.
const (
	CodeInvalidPhoneNumber      = "auth/invalid-phone-number"
	CodeTooManyRequests         = "auth/too-many-requests"
	CodeQuotaExceeded           = "auth/quota-exceeded"
	CodeOperationNotAllowed     = "auth/operation-not-allowed"
	CodeInvalidAPIKey           = "auth/invalid-api-key"
	CodeUnauthorizedDomain      = "auth/unauthorized-domain"
	CodeInvalidVerificationCode = "auth/invalid-verification-code"
	CodeCodeExpired             = "auth/code-expired"
)

// ProviderError is a coded failure reported by the SMS service.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type User struct {
	UID         string `json:"uid"`
	PhoneNumber string `json:"phoneNumber"`
}

// Verification identifies a code that was sent and can be confirmed.
type Verification struct {
	ID    string `json:"verificationId"`
	Phone string `json:"phone"`
}

type Provider interface {
	SendCode(ctx context.Context, phone string) (Verification, error)
	Confirm(ctx context.Context, v Verification, code string) (User, error)
	SignOut(ctx context.Context) error
}

var e164 = regexp.MustCompile(`^\+\d{10,15}$`)

type pendingCode struct {
	phone   string
	code    string
	expires time.Time
}

// DevProvider stands in for the SMS service on kiosks without one. Codes
// are written to the log instead of being texted.
type DevProvider struct {
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
	// FixedCode, when set, is issued instead of a random code.
	FixedCode string

	mu      sync.Mutex
	pending map[string]pendingCode
}

func NewDevProvider(ttl time.Duration, logger *zap.Logger) *DevProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DevProvider{
		logger:  logger.Named("otp"),
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string]pendingCode),
	}
}

func (p *DevProvider) SendCode(ctx context.Context, phone string) (Verification, error) {
	if err := ctx.Err(); err != nil {
		return Verification{}, err
	}
	if !e164.MatchString(phone) {
		return Verification{}, &ProviderError{Code: CodeInvalidPhoneNumber}
	}
	code := p.FixedCode
	if code == "" {
		code = fmt.Sprintf("%06d", rand.IntN(1000000))
	}
	v := Verification{ID: uuid.NewString(), Phone: phone}

	p.mu.Lock()
	p.pending[v.ID] = pendingCode{phone: phone, code: code, expires: p.now().Add(p.ttl)}
	p.mu.Unlock()

	p.logger.Info("OTP issued",
		zap.String("phone", phone),
		zap.String("verification_id", v.ID),
		zap.String("code", code))
	return v, nil
}

func (p *DevProvider) Confirm(ctx context.Context, v Verification, code string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pc, ok := p.pending[v.ID]
	if !ok {
		return User{}, &ProviderError{Code: CodeInvalidVerificationCode, Message: "unknown verification"}
	}
	if p.now().After(pc.expires) {
		delete(p.pending, v.ID)
		return User{}, &ProviderError{Code: CodeCodeExpired}
	}
	if pc.code != code {
		return User{}, &ProviderError{Code: CodeInvalidVerificationCode}
	}
	delete(p.pending, v.ID)
	return User{UID: "dev-" + v.ID[:8], PhoneNumber: pc.phone}, nil
}

func (p *DevProvider) SignOut(ctx context.Context) error {
	return ctx.Err()
}

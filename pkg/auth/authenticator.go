package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgOTPSent          = "OTP sent successfully"
	msgInvalidPhone     = "Please enter a valid 10-digit phone number"
	msgIncompleteOTP    = "Please enter the complete OTP"
	msgNoVerification   = "No verification in progress"
	msgSendFailed       = "Failed to send OTP. Please try again."
	msgVerifyFailed     = "Invalid OTP. Please try again."
	msgLogoutFailed     = "Failed to logout"
	msgTimedOut         = "Request timed out. Please try again."
	msgResendTooSoonFmt = "Please wait %d seconds before requesting a new OTP"
)

var sendMessages = map[string]string{
	CodeInvalidPhoneNumber:  "Invalid phone number. Please enter a valid number.",
	CodeTooManyRequests:     "Too many attempts. Please try again later.",
	CodeQuotaExceeded:       "SMS quota exceeded. Please try again later.",
	CodeOperationNotAllowed: "Phone authentication is not enabled. Please contact support.",
	CodeInvalidAPIKey:       "Configuration error. Please contact support.",
	CodeUnauthorizedDomain:  "This domain is not authorized. Please contact support.",
}

var verifyMessages = map[string]string{
	CodeInvalidVerificationCode: "Invalid OTP. Please check and try again.",
	CodeCodeExpired:             "OTP expired. Please request a new one.",
}

// Session is one in-flight phone verification.
type Session struct {
	ID           string       `json:"id"`
	Phone        string       `json:"phone"`
	Verification Verification `json:"-"`
	SentAt       time.Time    `json:"sentAt"`
}

type State struct {
	Loading       bool   `json:"loading"`
	Error         string `json:"error,omitempty"`
	OTPSent       bool   `json:"isOtpSent"`
	Authenticated bool   `json:"isAuthenticated"`
	User          *User  `json:"user,omitempty"`
	// ResendIn is the cooldown left before another code may be requested.
	ResendIn time.Duration `json:"resendIn"`
}

// PhoneNumber is the verified number, or empty when signed out.
func (s State) PhoneNumber() string {
	if s.User == nil {
		return ""
	}
	return s.User.PhoneNumber
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
}

type Options struct {
	CountryCode string
	Timeout     time.Duration
	ResendAfter time.Duration
	Logger      *zap.Logger
}

type Authenticator struct {
	provider    Provider
	countryCode string
	timeout     time.Duration
	resend      *ResendTimer
	logger      *zap.Logger

	mu        sync.Mutex
	state     State
	session   *Session
	listeners map[int]func(State)
	nextID    int
}

func NewAuthenticator(provider Provider, opts Options) *Authenticator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cc := opts.CountryCode
	if cc == "" {
		cc = "+91"
	}
	return &Authenticator{
		provider:    provider,
		countryCode: cc,
		timeout:     opts.Timeout,
		resend:      NewResendTimer(opts.ResendAfter),
		logger:      logger.Named("auth"),
		listeners:   make(map[int]func(State)),
	}
}

// NormalizePhone formats a number for the provider. Numbers starting with
// + are passed through; anything else gets the country code after leading
// zeros are dropped.
func NormalizePhone(countryCode, phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return countryCode + strings.TrimLeft(phone, "0")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Subscribe registers fn for state changes and returns the function that
// removes it.
func (a *Authenticator) Subscribe(fn func(State)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Authenticator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Authenticator) snapshotLocked() State {
	st := a.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	st.ResendIn = a.resend.Remaining()
	return st
}

// Session returns the pending verification, if any.
func (a *Authenticator) Session() (Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return Session{}, false
	}
	return *a.session, true
}

func (a *Authenticator) update(fn func(*State)) {
	a.mu.Lock()
	fn(&a.state)
	st := a.snapshotLocked()
	listeners := make([]func(State), 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()
	for _, l := range listeners {
		l(st)
	}
}

func (a *Authenticator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func (a *Authenticator) fail(message string) Result {
	a.update(func(s *State) {
		s.Loading = false
		s.Error = message
	})
	return Result{Success: false, Message: message}
}

// SendOTP texts a code to phone, a 10-digit local number or a full
// +<country><number>.
func (a *Authenticator) SendOTP(ctx context.Context, phone string) Result {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		if len(phone) < 11 || !isDigits(phone[1:]) {
			return a.fail(msgInvalidPhone)
		}
	} else if len(phone) != 10 || !isDigits(phone) {
		return a.fail(msgInvalidPhone)
	}
	formatted := NormalizePhone(a.countryCode, phone)

	if left := a.resend.Remaining(); left > 0 {
		if s, ok := a.Session(); ok && s.Phone == formatted {
			secs := int((left + time.Second - 1) / time.Second)
			return a.fail(fmt.Sprintf(msgResendTooSoonFmt, secs))
		}
	}

	a.update(func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	callCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	v, err := a.provider.SendCode(callCtx, formatted)
	if err != nil {
		a.logger.Warn("Failed to send OTP", zap.String("phone", formatted), zap.Error(err))
		return a.fail(sendErrorMessage(err))
	}

	session := &Session{ID: uuid.NewString(), Phone: formatted, Verification: v, SentAt: time.Now()}
	a.resend.Start()
	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
	a.update(func(s *State) {
		s.Loading = false
		s.OTPSent = true
	})
	a.logger.Info("OTP sent", zap.String("phone", formatted), zap.String("session_id", session.ID))
	return Result{Success: true, Message: msgOTPSent}
}

// VerifyOTP confirms the six-digit code for the pending session.
func (a *Authenticator) VerifyOTP(ctx context.Context, code string) Result {
	code = strings.TrimSpace(code)
	if len(code) != 6 || !isDigits(code) {
		return a.fail(msgIncompleteOTP)
	}
	session, ok := a.Session()
	if !ok {
		return a.fail(msgNoVerification)
	}

	a.update(func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	callCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	user, err := a.provider.Confirm(callCtx, session.Verification, code)
	if err != nil {
		a.logger.Warn("Failed to verify OTP", zap.String("session_id", session.ID), zap.Error(err))
		return a.fail(verifyErrorMessage(err))
	}

	a.resend.Stop()
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.update(func(s *State) {
		s.Loading = false
		s.OTPSent = false
		s.Authenticated = true
		s.User = &user
	})
	a.logger.Info("User signed in", zap.String("uid", user.UID))
	return Result{Success: true, User: &user}
}

func (a *Authenticator) Logout(ctx context.Context) Result {
	callCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.provider.SignOut(callCtx); err != nil {
		a.logger.Warn("Failed to sign out", zap.Error(err))
		return Result{Success: false, Message: msgLogoutFailed}
	}
	a.resend.Stop()
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.update(func(s *State) {
		*s = State{}
	})
	return Result{Success: true}
}

// Reset abandons the pending verification and clears the error. A signed-in
// user stays signed in.
func (a *Authenticator) Reset() {
	a.resend.Stop()
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.update(func(s *State) {
		s.Error = ""
		s.OTPSent = false
		s.Loading = false
	})
}

func sendErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimedOut
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		if msg, ok := sendMessages[perr.Code]; ok {
			return msg
		}
		if perr.Message != "" {
			return perr.Message
		}
	}
	return msgSendFailed
}

func verifyErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimedOut
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		if msg, ok := verifyMessages[perr.Code]; ok {
			return msg
		}
	}
	return msgVerifyFailed
}

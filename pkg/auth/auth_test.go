package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubProvider struct {
	sendErr    error
	confirmErr error
	sent       []string
	block      bool
}

func (p *stubProvider) SendCode(ctx context.Context, phone string) (Verification, error) {
	if p.block {
		<-ctx.Done()
		return Verification{}, ctx.Err()
	}
	p.sent = append(p.sent, phone)
	if p.sendErr != nil {
		return Verification{}, p.sendErr
	}
	return Verification{ID: "v1", Phone: phone}, nil
}

func (p *stubProvider) Confirm(_ context.Context, v Verification, code string) (User, error) {
	if p.confirmErr != nil {
		return User{}, p.confirmErr
	}
	return User{UID: "u1", PhoneNumber: v.Phone}, nil
}

func (p *stubProvider) SignOut(context.Context) error { return nil }

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"9876543210":    "+919876543210",
		"09876543210":   "+919876543210",
		"+447700900123": "+447700900123",
	}
	for in, want := range cases {
		if got := NormalizePhone("+91", in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSendOTPValidatesLength(t *testing.T) {
	p := &stubProvider{}
	a := NewAuthenticator(p, Options{})
	for _, phone := range []string{"12345", "98765432101", "98765abcde", "+91"} {
		if res := a.SendOTP(context.Background(), phone); res.Success {
			t.Fatalf("expected %q to be rejected", phone)
		}
	}
	if len(p.sent) != 0 {
		t.Fatalf("provider should not be called, got %v", p.sent)
	}
	if a.State().Error == "" {
		t.Fatalf("expected error in state")
	}
}

func TestSendAndVerify(t *testing.T) {
	p := &stubProvider{}
	a := NewAuthenticator(p, Options{ResendAfter: time.Hour})
	var states []State
	a.Subscribe(func(s State) { states = append(states, s) })

	res := a.SendOTP(context.Background(), "9876543210")
	if !res.Success || p.sent[0] != "+919876543210" {
		t.Fatalf("send: %+v sent=%v", res, p.sent)
	}
	st := a.State()
	if !st.OTPSent || st.Loading || st.ResendIn <= 0 {
		t.Fatalf("unexpected state %+v", st)
	}
	if s, ok := a.Session(); !ok || s.Phone != "+919876543210" {
		t.Fatalf("session not recorded")
	}

	if res := a.VerifyOTP(context.Background(), "123"); res.Success || res.Message != "Please enter the complete OTP" {
		t.Fatalf("short code should fail: %+v", res)
	}
	res = a.VerifyOTP(context.Background(), "123456")
	if !res.Success || res.User == nil || res.User.PhoneNumber != "+919876543210" {
		t.Fatalf("verify: %+v", res)
	}
	st = a.State()
	if !st.Authenticated || st.OTPSent || st.PhoneNumber() != "+919876543210" || st.ResendIn != 0 {
		t.Fatalf("unexpected state %+v", st)
	}
	if _, ok := a.Session(); ok {
		t.Fatalf("session should be cleared")
	}
	if len(states) == 0 || !states[len(states)-1].Authenticated {
		t.Fatalf("subscribers not notified")
	}

	if res := a.Logout(context.Background()); !res.Success || a.State().Authenticated {
		t.Fatalf("logout: %+v", res)
	}
}

func TestVerifyWithoutSession(t *testing.T) {
	a := NewAuthenticator(&stubProvider{}, Options{})
	if res := a.VerifyOTP(context.Background(), "123456"); res.Message != "No verification in progress" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestResendCooldown(t *testing.T) {
	p := &stubProvider{}
	a := NewAuthenticator(p, Options{ResendAfter: time.Hour})
	a.SendOTP(context.Background(), "9876543210")
	res := a.SendOTP(context.Background(), "9876543210")
	if res.Success || !strings.HasPrefix(res.Message, "Please wait") {
		t.Fatalf("expected cooldown, got %+v", res)
	}
	if len(p.sent) != 1 {
		t.Fatalf("provider called during cooldown")
	}
	a.Reset()
	if res := a.SendOTP(context.Background(), "9876543210"); !res.Success {
		t.Fatalf("reset should clear the cooldown: %+v", res)
	}
}

func TestErrorMessages(t *testing.T) {
	sendCases := map[error]string{
		&ProviderError{Code: CodeTooManyRequests}:       "Too many attempts. Please try again later.",
		&ProviderError{Code: CodeQuotaExceeded}:         "SMS quota exceeded. Please try again later.",
		&ProviderError{Code: CodeInvalidPhoneNumber}:    "Invalid phone number. Please enter a valid number.",
		&ProviderError{Code: "auth/x", Message: "nope"}: "nope",
		errors.New("boom"): "Failed to send OTP. Please try again.",
	}
	for err, want := range sendCases {
		a := NewAuthenticator(&stubProvider{sendErr: err}, Options{})
		if res := a.SendOTP(context.Background(), "9876543210"); res.Message != want {
			t.Fatalf("send %v: got %q, want %q", err, res.Message, want)
		}
	}

	verifyCases := map[error]string{
		&ProviderError{Code: CodeInvalidVerificationCode}: "Invalid OTP. Please check and try again.",
		&ProviderError{Code: CodeCodeExpired}:             "OTP expired. Please request a new one.",
		errors.New("boom"):                                "Invalid OTP. Please try again.",
	}
	for err, want := range verifyCases {
		a := NewAuthenticator(&stubProvider{confirmErr: err}, Options{})
		a.SendOTP(context.Background(), "9876543210")
		if res := a.VerifyOTP(context.Background(), "000000"); res.Message != want {
			t.Fatalf("verify %v: got %q, want %q", err, res.Message, want)
		}
	}
}

func TestSendTimesOut(t *testing.T) {
	a := NewAuthenticator(&stubProvider{block: true}, Options{Timeout: 20 * time.Millisecond})
	res := a.SendOTP(context.Background(), "9876543210")
	if res.Success || res.Message != "Request timed out. Please try again." {
		t.Fatalf("unexpected result %+v", res)
	}
	if a.State().Loading {
		t.Fatalf("loading flag left set")
	}
}

func TestDevProvider(t *testing.T) {
	p := NewDevProvider(time.Minute, nil)
	p.FixedCode = "424242"
	a := NewAuthenticator(p, Options{})

	if res := a.SendOTP(context.Background(), "9876543210"); !res.Success {
		t.Fatalf("send: %+v", res)
	}
	if res := a.VerifyOTP(context.Background(), "111111"); res.Message != "Invalid OTP. Please check and try again." {
		t.Fatalf("wrong code: %+v", res)
	}
	if res := a.VerifyOTP(context.Background(), "424242"); !res.Success || !strings.HasPrefix(res.User.UID, "dev-") {
		t.Fatalf("verify: %+v", res)
	}
}

func TestDevProviderExpiry(t *testing.T) {
	p := NewDevProvider(time.Minute, nil)
	p.FixedCode = "424242"
	now := time.Now()
	p.now = func() time.Time { return now }
	v, err := p.SendCode(context.Background(), "+919876543210")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	now = now.Add(2 * time.Minute)
	_, err = p.Confirm(context.Background(), v, "424242")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Code != CodeCodeExpired {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestResendTimer(t *testing.T) {
	timer := NewResendTimer(30 * time.Millisecond)
	first := timer.Start()
	second := timer.Start()

	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown never finished")
	}
	select {
	case <-first:
		t.Fatalf("cancelled countdown fired")
	default:
	}
	if timer.Remaining() != 0 {
		t.Fatalf("expected no time remaining")
	}

	timer = NewResendTimer(time.Hour)
	timer.Start()
	if timer.Remaining() <= 0 {
		t.Fatalf("expected remaining time")
	}
	timer.Stop()
	if timer.Remaining() != 0 {
		t.Fatalf("stop should clear the countdown")
	}
}

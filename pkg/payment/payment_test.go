package payment

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
)

var sandboxConfig = config.PaymentConfig{
	MerchantID:  "MERCHANTUAT",
	SaltKey:     "salt",
	SaltIndex:   "1",
	BaseURL:     "https://api-preprod.phonepe.com/apis/pg-sandbox",
	RedirectURL: "http://127.0.0.1:8080/payment/callback",
	CallbackURL: "http://127.0.0.1:8080/api/phonepe/callback",
}

var txnPattern = regexp.MustCompile(`^TXN\d{13}[0-9A-F]{6}$`)

func TestMethods(t *testing.T) {
	ms := Methods()
	if len(ms) != 7 || ms[0].ID != "phonepe" || ms[6].ID != "cod" {
		t.Fatalf("unexpected methods %+v", ms)
	}
	m, ok := MethodByID("netbanking")
	if !ok || m.Kind != KindNetBanking {
		t.Fatalf("unexpected method %+v", m)
	}
	if _, ok := MethodByID("bitcoin"); ok {
		t.Fatalf("expected unknown method")
	}
}

func TestSandboxInitiate(t *testing.T) {
	s := NewSandbox(sandboxConfig, nil)
	res, err := s.Initiate(context.Background(), Draft{OrderID: 7, Total: 168}, models.Customer{Phone: "9876543210"})
	if err != nil || !res.Success {
		t.Fatalf("initiate: %+v %v", res, err)
	}
	if !txnPattern.MatchString(res.TransactionID) {
		t.Fatalf("unexpected transaction id %q", res.TransactionID)
	}

	raw, err := base64.StdEncoding.DecodeString(res.Payload)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	var req payRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if req.Amount != 16800 || req.MerchantUserID != "9876543210" || req.PaymentInstrument.Type != "PAY_PAGE" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.RedirectURL != sandboxConfig.RedirectURL+"?txnId="+res.TransactionID {
		t.Fatalf("unexpected redirect %q", req.RedirectURL)
	}

	sum := sha256.Sum256([]byte(res.Payload + "/pg/v1/pay" + "salt"))
	if want := hex.EncodeToString(sum[:]) + "###1"; res.Checksum != want {
		t.Fatalf("checksum = %q, want %q", res.Checksum, want)
	}
	if res.RedirectData == nil || res.RedirectData.Headers["X-VERIFY"] != res.Checksum {
		t.Fatalf("redirect data missing checksum: %+v", res.RedirectData)
	}
}

func TestSandboxGuestAndInvalidAmount(t *testing.T) {
	s := NewSandbox(sandboxConfig, nil)
	res, err := s.Initiate(context.Background(), Draft{Total: 50}, models.Customer{})
	if err != nil || !res.Success {
		t.Fatalf("initiate: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(res.Payload)
	var req payRequest
	_ = json.Unmarshal(raw, &req)
	if req.MerchantUserID != "GUEST_USER" {
		t.Fatalf("expected guest user, got %q", req.MerchantUserID)
	}

	res, err = s.Initiate(context.Background(), Draft{Total: 0}, models.Customer{})
	if err != nil || res.Success || res.Error == "" {
		t.Fatalf("expected declined result, got %+v %v", res, err)
	}
}

func TestSandboxStatusAndCallback(t *testing.T) {
	s := NewSandbox(sandboxConfig, nil)
	res, _ := s.Initiate(context.Background(), Draft{OrderID: 1, Total: 100}, models.Customer{})

	if st := s.Status(res.TransactionID); !st.Success || st.Status != TxnInitiated || st.Amount != 100 {
		t.Fatalf("unexpected status %+v", st)
	}
	if st := s.Status("TXNMISSING"); st.Success || st.Status != TxnNotFound {
		t.Fatalf("unexpected status for unknown txn %+v", st)
	}

	cb := s.HandleCallback(CodeSuccess, res.TransactionID)
	if !cb.Success || s.Status(res.TransactionID).Status != TxnSuccess {
		t.Fatalf("callback not recorded: %+v", cb)
	}
	cb = s.HandleCallback(CodeDeclined, res.TransactionID)
	if cb.Success || s.Status(res.TransactionID).Status != TxnFailed {
		t.Fatalf("decline not recorded: %+v", cb)
	}
}

func TestUPIIntent(t *testing.T) {
	s := NewSandbox(sandboxConfig, nil)
	intent := s.UPIIntent(Draft{Total: 250})
	want := "upi://pay?pa=MERCHANTUAT%40ybl&pn=Startup+Kafe&tr=" + intent.TransactionID +
		"&am=250&cu=INR&tn=Order+at+Startup+Kafe"
	if intent.URL != want {
		t.Fatalf("intent = %q, want %q", intent.URL, want)
	}
}

type gatewayFunc func(ctx context.Context, draft Draft, customer models.Customer) (Result, error)

func (f gatewayFunc) Initiate(ctx context.Context, draft Draft, customer models.Customer) (Result, error) {
	return f(ctx, draft, customer)
}

func TestCallerPassesThrough(t *testing.T) {
	c, err := NewCaller(NewSandbox(sandboxConfig, nil), time.Second, nil)
	if err != nil {
		t.Fatalf("caller: %v", err)
	}
	defer c.Stop()

	res, err := c.Initiate(context.Background(), Draft{Total: 120}, models.Customer{Phone: "9876543210"})
	if err != nil || !res.Success || !txnPattern.MatchString(res.TransactionID) {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
}

func TestCallerPropagatesGatewayError(t *testing.T) {
	boom := errors.New("gateway unreachable")
	c, err := NewCaller(gatewayFunc(func(context.Context, Draft, models.Customer) (Result, error) {
		return Result{}, boom
	}), time.Second, nil)
	if err != nil {
		t.Fatalf("caller: %v", err)
	}
	defer c.Stop()

	if _, err := c.Initiate(context.Background(), Draft{Total: 1}, models.Customer{}); !errors.Is(err, boom) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestCallerTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c, err := NewCaller(gatewayFunc(func(ctx context.Context, _ Draft, _ models.Customer) (Result, error) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		return Result{Success: true}, nil
	}), 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("caller: %v", err)
	}
	defer c.Stop()

	start := time.Now()
	_, err = c.Initiate(context.Background(), Draft{Total: 1}, models.Customer{})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took %v", elapsed)
	}
}

func TestCallerStopShutsDownSystem(t *testing.T) {
	c, err := NewCaller(NewSandbox(sandboxConfig, nil), time.Second, nil)
	if err != nil {
		t.Fatalf("caller: %v", err)
	}

	c.Stop()
	if !c.system.IsStopped() {
		t.Fatalf("actor system still running after Stop")
	}
	c.Stop()
}

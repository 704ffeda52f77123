package payment

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const payPath = "/pg/v1/pay"

// Gateway response codes.
const (
	CodeSuccess   = "PAYMENT_SUCCESS"
	CodePending   = "PAYMENT_PENDING"
	CodeFailed    = "PAYMENT_ERROR"
	CodeDeclined  = "PAYMENT_DECLINED"
	CodeCancelled = "PAYMENT_CANCELLED"
)

// Transaction states tracked for initiated payments.
const (
	TxnInitiated = "INITIATED"
	TxnSuccess   = "SUCCESS"
	TxnFailed    = "FAILED"
	TxnNotFound  = "NOT_FOUND"
)

type Transaction struct {
	ID           string    `json:"transactionId"`
	OrderID      int64     `json:"orderId"`
	Amount       int       `json:"amount"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	ResponseCode string    `json:"responseCode,omitempty"`
}

type payInstrument struct {
	Type string `json:"type"`
}

type payRequest struct {
	MerchantID            string        `json:"merchantId"`
	MerchantTransactionID string        `json:"merchantTransactionId"`
	MerchantUserID        string        `json:"merchantUserId"`
	Amount                int           `json:"amount"`
	RedirectURL           string        `json:"redirectUrl"`
	RedirectMode          string        `json:"redirectMode"`
	CallbackURL           string        `json:"callbackUrl"`
	MobileNumber          string        `json:"mobileNumber"`
	PaymentInstrument     payInstrument `json:"paymentInstrument"`
}

// Sandbox builds signed pay-page requests for the PhonePe sandbox and keeps
// initiated transactions in memory. Signing belongs on a server in
// production; the salt key here is a sandbox credential.
type Sandbox struct {
	cfg    config.PaymentConfig
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]*Transaction
}

func NewSandbox(cfg config.PaymentConfig, logger *zap.Logger) *Sandbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sandbox{
		cfg:     cfg,
		logger:  logger.Named("payment"),
		now:     time.Now,
		pending: make(map[string]*Transaction),
	}
}

// NewTransactionID returns TXN, the current millisecond timestamp and six
// random characters, upper-cased.
func (s *Sandbox) NewTransactionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return strings.ToUpper(fmt.Sprintf("TXN%d%s", s.now().UnixMilli(), suffix))
}

func (s *Sandbox) checksum(path string) string {
	sum := sha256.Sum256([]byte(path + s.cfg.SaltKey))
	return hex.EncodeToString(sum[:]) + "###" + s.cfg.SaltIndex
}

func (s *Sandbox) Initiate(ctx context.Context, draft Draft, customer models.Customer) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if draft.Total <= 0 {
		return Result{Success: false, Error: ErrInvalidAmount.Error()}, nil
	}

	txnID := s.NewTransactionID()
	userID := customer.Phone
	if userID == "" {
		userID = "GUEST_USER"
	}
	req := payRequest{
		MerchantID:            s.cfg.MerchantID,
		MerchantTransactionID: txnID,
		MerchantUserID:        userID,
		Amount:                draft.Total * 100,
		RedirectURL:           s.cfg.RedirectURL + "?txnId=" + txnID,
		RedirectMode:          "REDIRECT",
		CallbackURL:           s.cfg.CallbackURL,
		MobileNumber:          customer.Phone,
		PaymentInstrument:     payInstrument{Type: "PAY_PAGE"},
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode payment request: %w", err)
	}
	payload := base64.StdEncoding.EncodeToString(raw)
	checksum := s.checksum(payload + payPath)

	s.mu.Lock()
	s.pending[txnID] = &Transaction{
		ID:        txnID,
		OrderID:   draft.OrderID,
		Amount:    draft.Total,
		Timestamp: s.now(),
		Status:    TxnInitiated,
	}
	s.mu.Unlock()

	s.logger.Info("Payment initiated",
		zap.String("transaction_id", txnID),
		zap.Int64("order_id", draft.OrderID),
		zap.Int("amount", draft.Total))

	paymentURL := s.cfg.BaseURL + payPath
	return Result{
		Success:       true,
		TransactionID: txnID,
		PaymentURL:    paymentURL,
		Payload:       payload,
		Checksum:      checksum,
		RedirectData: &RedirectData{
			URL:    paymentURL,
			Method: "POST",
			Headers: map[string]string{
				"Content-Type": "application/json",
				"X-VERIFY":     checksum,
			},
			Body: map[string]string{"request": payload},
		},
	}, nil
}

type StatusResult struct {
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId,omitempty"`
	Amount        int    `json:"amount,omitempty"`
	Checksum      string `json:"checksum,omitempty"`
}

// Status reports the locally tracked state of a transaction along with the
// X-VERIFY value a status call would carry.
func (s *Sandbox) Status(txnID string) StatusResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.pending[txnID]
	if !ok {
		return StatusResult{Success: false, Status: TxnNotFound}
	}
	return StatusResult{
		Success:       true,
		Status:        txn.Status,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Checksum:      s.checksum(fmt.Sprintf("/pg/v1/status/%s/%s", s.cfg.MerchantID, txnID)),
	}
}

type CallbackResult struct {
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

// HandleCallback records the gateway's response code for a transaction.
func (s *Sandbox) HandleCallback(code, txnID string) CallbackResult {
	s.mu.Lock()
	if txn, ok := s.pending[txnID]; ok {
		txn.ResponseCode = code
		if code == CodeSuccess {
			txn.Status = TxnSuccess
		} else {
			txn.Status = TxnFailed
		}
	}
	s.mu.Unlock()

	s.logger.Info("Payment callback",
		zap.String("transaction_id", txnID),
		zap.String("code", code))

	return CallbackResult{Success: code == CodeSuccess, Status: code, TransactionID: txnID}
}

type Intent struct {
	URL           string `json:"url"`
	TransactionID string `json:"transactionId"`
}

// UPIIntent builds a upi://pay deep link for the draft total.
func (s *Sandbox) UPIIntent(draft Draft) Intent {
	txnID := s.NewTransactionID()
	params := [][2]string{
		{"pa", s.cfg.MerchantID + "@ybl"},
		{"pn", "Startup Kafe"},
		{"tr", txnID},
		{"am", strconv.Itoa(draft.Total)},
		{"cu", "INR"},
		{"tn", "Order at Startup Kafe"},
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p[0]+"="+url.QueryEscape(p[1]))
	}
	return Intent{URL: "upi://pay?" + strings.Join(parts, "&"), TransactionID: txnID}
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ticket-checkout/internal/config"
	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/models"
)

const (
	payPalAlreadyDone = "PAYMENT_ALREADY_DONE"
	tokenExpiryMargin = time.Minute
)

// PayPalService talks to the PayPal REST payments API
type PayPalService struct {
	config  config.PayPalConfig
	client  *http.Client
	baseURL string
	tracer  trace.Tracer

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalService creates a new PayPal payment service
func NewPayPalService(cfg config.PayPalConfig) *PayPalService {
	return &PayPalService{
		config:  cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: cfg.BaseURL(),
		tracer:  otel.Tracer(tracerName),
	}
}

type payPalAmount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type payPalItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

type payPalTransaction struct {
	Amount      payPalAmount `json:"amount"`
	Description string       `json:"description,omitempty"`
	ItemList    struct {
		Items []payPalItem `json:"items"`
	} `json:"item_list"`
}

// payPalPaymentRequest is the body of POST /v1/payments/payment
type payPalPaymentRequest struct {
	Intent string `json:"intent"`
	Payer  struct {
		PaymentMethod string `json:"payment_method"`
	} `json:"payer"`
	Transactions []payPalTransaction `json:"transactions"`
	RedirectURLs struct {
		ReturnURL string `json:"return_url"`
		CancelURL string `json:"cancel_url"`
	} `json:"redirect_urls"`
}

type payPalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// payPalPaymentResponse covers both create and execute responses
type payPalPaymentResponse struct {
	ID    string       `json:"id"`
	State string       `json:"state"`
	Links []payPalLink `json:"links"`
	Payer struct {
		PayerInfo struct {
			PayerID string `json:"payer_id"`
		} `json:"payer_info"`
	} `json:"payer"`
}

type payPalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// payPalErrorResponse is PayPal's error body. Token errors use the OAuth
// fields instead of name/message.
type payPalErrorResponse struct {
	Name             string `json:"name"`
	Message          string `json:"message"`
	DebugID          string `json:"debug_id"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// InitiatePayment creates a PayPal payment and returns its approval link
func (s *PayPalService) InitiatePayment(ctx context.Context, req *PaymentRequest) (_ *InitiatedPayment, err error) {
	ctx, span := s.tracer.Start(ctx, "paypal.create_payment")
	defer func() { endSpan(span, err) }()

	body := payPalPaymentRequest{Intent: "sale"}
	body.Payer.PaymentMethod = "paypal"
	body.RedirectURLs.ReturnURL = req.ReturnURL
	body.RedirectURLs.CancelURL = req.CancelURL

	txn := payPalTransaction{
		Amount:      payPalAmount{Total: formatAmount(req.Amount), Currency: req.Currency},
		Description: req.Description,
	}
	txn.ItemList.Items = lo.Map(req.Items, func(item PaymentItem, _ int) payPalItem {
		return payPalItem{
			Name:     item.Title,
			Quantity: strconv.Itoa(item.Quantity),
			Price:    formatAmount(item.UnitPrice),
			Currency: req.Currency,
		}
	})
	body.Transactions = []payPalTransaction{txn}

	var resp payPalPaymentResponse
	if err := s.do(ctx, "create_payment", http.MethodPost, "/v1/payments/payment", body, nil, &resp); err != nil {
		return nil, err
	}

	approval, ok := lo.Find(resp.Links, func(l payPalLink) bool { return l.Rel == "approval_url" })
	if !ok || resp.ID == "" {
		return nil, &models.PaymentGatewayError{Op: "create_payment", Message: "response has no approval url"}
	}

	span.SetAttributes(attribute.String("payment.id", resp.ID))
	logging.FromContext(ctx).WithField("payment_id", resp.ID).Debug("PayPal payment created")

	return &InitiatedPayment{ID: resp.ID, ApprovalURL: approval.Href}, nil
}

// ExecutePayment captures an approved payment. No PayPal-Request-Id is sent:
// PayPal would replay the first success for it, and a second execute has to
// come back as PAYMENT_ALREADY_DONE instead.
func (s *PayPalService) ExecutePayment(ctx context.Context, paymentID, payerID string) (_ *CapturedPayment, err error) {
	ctx, span := s.tracer.Start(ctx, "paypal.execute_payment", trace.WithAttributes(
		attribute.String("payment.id", paymentID),
	))
	defer func() { endSpan(span, err) }()

	path := "/v1/payments/payment/" + url.PathEscape(paymentID) + "/execute"
	body := map[string]string{"payer_id": payerID}

	var resp payPalPaymentResponse
	if err := s.do(ctx, "execute_payment", http.MethodPost, path, body, nil, &resp); err != nil {
		return nil, err
	}

	if resp.State == "failed" {
		return nil, &models.PaymentGatewayError{Op: "execute_payment", Message: "payment state is failed"}
	}

	return &CapturedPayment{ID: resp.ID, PayerID: resp.Payer.PayerInfo.PayerID, State: resp.State}, nil
}

// do sends an authenticated JSON request and decodes a 2xx response into out
func (s *PayPalService) do(ctx context.Context, op, method, path string, in any, headers http.Header, out any) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range headers {
		httpReq.Header[k] = v
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return &models.PaymentGatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.PaymentGatewayError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"op":     op,
		"status": resp.StatusCode,
	}).Debug("PayPal response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.handleAPIError(op, resp.StatusCode, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &models.PaymentGatewayError{Op: op, StatusCode: resp.StatusCode, Message: "invalid response body", Err: err}
	}

	return nil
}

// token returns a cached access token, fetching a new one when it expires
func (s *PayPalService) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	httpReq.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", &models.PaymentGatewayError{Op: "token", Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.PaymentGatewayError{Op: "token", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", s.handleAPIError("token", resp.StatusCode, bodyBytes)
	}

	var tokenResp payPalTokenResponse
	if err := json.Unmarshal(bodyBytes, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", &models.PaymentGatewayError{Op: "token", StatusCode: resp.StatusCode, Message: "invalid token response", Err: err}
	}

	s.accessToken = tokenResp.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpiryMargin)

	return s.accessToken, nil
}

func (s *PayPalService) handleAPIError(op string, statusCode int, body []byte) error {
	gwErr := &models.PaymentGatewayError{Op: op, StatusCode: statusCode}

	var apiErr payPalErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		gwErr.Message = strings.TrimSpace(string(body))
		return gwErr
	}

	gwErr.Name = lo.Ternary(apiErr.Name != "", apiErr.Name, apiErr.Error)
	gwErr.Message = lo.Ternary(apiErr.Message != "", apiErr.Message, apiErr.ErrorDescription)

	if gwErr.Name == payPalAlreadyDone {
		gwErr.Err = models.ErrPaymentAlreadyExecuted
	}

	return gwErr
}

// formatAmount renders cents as the decimal string PayPal expects
func formatAmount(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the hosted payment processor's internal API. All money
// movement happens on the processor's side; this service only records the
// outcome in its own ledger.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Status       string `json:"status"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, currency, customerRef string) (*PaymentIntent, error) {
	var intent PaymentIntent
	err := c.post(ctx, "/v1/payment_intents", map[string]any{
		"amount_cents": amountCents,
		"currency":     currency,
		"customer_ref": customerRef,
	}, &intent)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *Client) ConfirmPayment(ctx context.Context, intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	err := c.post(ctx, fmt.Sprintf("/v1/payment_intents/%s/confirm", intentID), nil, &intent)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

type SetupIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

func (c *Client) CreateSetupIntent(ctx context.Context, customerRef string) (*SetupIntent, error) {
	var intent SetupIntent
	err := c.post(ctx, "/v1/setup_intents", map[string]any{"customer_ref": customerRef}, &intent)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

type ConnectAccount struct {
	ID string `json:"id"`
}

func (c *Client) CreateConnectAccount(ctx context.Context, userRef, email string) (*ConnectAccount, error) {
	var acct ConnectAccount
	err := c.post(ctx, "/v1/connect_accounts", map[string]any{
		"user_ref": userRef,
		"email":    email,
	}, &acct)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

type AccountLink struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

// CreateAccountLink returns a hosted onboarding URL. Completion is detected
// only by re-polling VerifyOnboardingStatus; the processor sends no push.
func (c *Client) CreateAccountLink(ctx context.Context, accountID, returnURL, refreshURL string) (*AccountLink, error) {
	var link AccountLink
	err := c.post(ctx, "/v1/account_links", map[string]any{
		"account_id":  accountID,
		"return_url":  returnURL,
		"refresh_url": refreshURL,
	}, &link)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

type OnboardingStatus struct {
	AccountID        string   `json:"account_id"`
	DetailsSubmitted bool     `json:"details_submitted"`
	ChargesEnabled   bool     `json:"charges_enabled"`
	PayoutsEnabled   bool     `json:"payouts_enabled"`
	CurrentlyDue     []string `json:"currently_due"`
}

func (c *Client) VerifyOnboardingStatus(ctx context.Context, accountID string) (*OnboardingStatus, error) {
	var status OnboardingStatus
	err := c.get(ctx, fmt.Sprintf("/v1/connect_accounts/%s/status", accountID), &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

type Transfer struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateTransfer moves escrowed funds to a connected payout account.
func (c *Client) CreateTransfer(ctx context.Context, destinationAccountID string, amountCents int64, reference, description string) (*Transfer, error) {
	var tr Transfer
	err := c.post(ctx, "/v1/transfers", map[string]any{
		"destination":  destinationAccountID,
		"amount_cents": amountCents,
		"reference":    reference,
		"description":  description,
	}, &tr)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) CreateRefund(ctx context.Context, intentID string, amountCents int64, reference string) (*Refund, error) {
	var rf Refund
	err := c.post(ctx, "/v1/refunds", map[string]any{
		"payment_intent": intentID,
		"amount_cents":   amountCents,
		"reference":      reference,
	}, &rf)
	if err != nil {
		return nil, err
	}
	return &rf, nil
}

// --- transport helpers ---

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment processor unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("payment processor returned %d: %s", resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

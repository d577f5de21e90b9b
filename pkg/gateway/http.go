package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/payd/txn"
)

const (
	initiatePath = "/api/v1/payments"
	checkPath    = "/api/v1/payments/%s/transactions/%s/status"
)

// HTTPClient talks JSON over HTTP to the invoice-payment gateway
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	cl      *http.Client
	log     log15.Logger
}

// NewHTTPClient creates a gateway client for the given base URL
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, log log15.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing gateway URL: %v", err)
	}
	return &HTTPClient{
		baseURL: u,
		apiKey:  apiKey,
		cl:      &http.Client{Timeout: timeout},
		log: log.New(log15.Ctx{
			"pkg": "github.com/sahelpay/payd/pkg/gateway",
		}),
	}, nil
}

type initiateRequestBody struct {
	InvoiceID   string `json:"invoice_id"`
	Method      string `json:"method"`
	PhoneNumber string `json:"phone_number"`
}

type initiateResponseBody struct {
	TransactionID string     `json:"transaction_id"`
	PaymentURL    string     `json:"payment_url,omitempty"`
	PaymentCode   string     `json:"payment_code,omitempty"`
	Instructions  string     `json:"instructions,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type checkResponseBody struct {
	Status        string `json:"status"`
	InvoiceStatus string `json:"invoice_status,omitempty"`
}

// Initiate creates a new transaction on the gateway
func (c *HTTPClient) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	body, err := json.Marshal(initiateRequestBody{
		InvoiceID:   req.InvoiceID,
		Method:      req.Method.String(),
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(initiatePath), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	res, err := c.cl.Do(httpReq)
	if err != nil {
		// transport error, left unwrapped for transient classification
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, c.decodeError(res)
	}

	resBody := initiateResponseBody{}
	if err := json.NewDecoder(res.Body).Decode(&resBody); err != nil {
		return nil, fmt.Errorf("error decoding initiate response: %v", err)
	}
	result := &InitiateResult{
		TransactionID: resBody.TransactionID,
		PaymentURL:    resBody.PaymentURL,
		PaymentCode:   resBody.PaymentCode,
		Instructions:  resBody.Instructions,
	}
	if resBody.ExpiresAt != nil {
		result.ExpiresAt = *resBody.ExpiresAt
	}
	return result, nil
}

// Check queries the gateway for the current transaction status
func (c *HTTPClient) Check(ctx context.Context, invoiceID, transactionID string) (*CheckResult, error) {
	path := fmt.Sprintf(checkPath, url.PathEscape(invoiceID), url.PathEscape(transactionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(httpReq)

	res, err := c.cl.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, c.decodeError(res)
	}

	resBody := checkResponseBody{}
	if err := json.NewDecoder(res.Body).Decode(&resBody); err != nil {
		return nil, fmt.Errorf("error decoding check response: %v", err)
	}
	return &CheckResult{
		Status:        txn.Status(resBody.Status),
		InvoiceStatus: resBody.InvoiceStatus,
	}, nil
}

func (c *HTTPClient) endpoint(path string) string {
	u := *c.baseURL
	u.Path = path
	return u.String()
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// decodeError turns a non-2xx gateway response into an *Error
func (c *HTTPClient) decodeError(res *http.Response) error {
	gwErr := &Error{HTTPStatus: res.StatusCode}
	if err := json.NewDecoder(res.Body).Decode(gwErr); err != nil {
		c.log.Warn("undecodable gateway error body", log15.Ctx{
			"httpStatus": res.StatusCode,
			"err":        err,
		})
		gwErr.Message = res.Status
	}
	return gwErr
}

package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"crustalyst/internal/common/auth"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/domain"
)

// API is what the board and the tablet need from the backend.
type API interface {
	Tables(ctx context.Context) ([]domain.Table, error)
	Table(ctx context.Context, id int) (domain.Table, error)
	ClaimTable(ctx context.Context, id int) (domain.Table, error)
	ExitTable(ctx context.Context, id int, password string) (domain.CleanupReport, error)
	Menu(ctx context.Context) ([]domain.MenuItem, error)
	Categories(ctx context.Context) ([]string, error)
	History(ctx context.Context, tableID int) (domain.History, error)
	SubmitOrder(ctx context.Context, tableID int, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error)
	CallStaff(ctx context.Context, tableID int, message string) (domain.StaffNotification, error)
	Bill(ctx context.Context, tableID int) (domain.Bill, error)
	Subscribe(ctx context.Context, sub Subscription, fn func(domain.RealtimeFrame)) error
}

// APIError is a problem response from the API. It unwraps to the matching
// domain error when the detail names one.
type APIError struct {
	Status int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Type, e.Detail)
}

var knownErrors = []error{
	domain.ErrTableNotFound, domain.ErrTableUnavailable, domain.ErrOrderNotFound,
	domain.ErrOrderItemNotFound, domain.ErrMenuItemNotFound, domain.ErrItemUnavailable,
	domain.ErrEmptyOrder, domain.ErrInvalidQuantity, domain.ErrNotificationMissing,
	domain.ErrInsufficientPayment, domain.ErrNothingToPay, domain.ErrInvalidPassword,
	domain.ErrInvalidStatus,
}

func (e *APIError) Unwrap() error {
	for _, known := range knownErrors {
		if strings.HasSuffix(e.Detail, known.Error()) {
			return known
		}
	}
	if e.Status == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	return nil
}

// Client is the single shared handle to the API.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	lg     *logger.Logger
}

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.APIURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", cfg.APIURL)
	}
	return &Client{
		base:   base,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		lg:     logger.New("kiosk"),
	}, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return err
	}
	req.Header.Set(auth.APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(apiErr); err != nil {
			apiErr.Detail = resp.Status
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func tablePath(id int, suffix string) string {
	return "/api/v1/tables/" + strconv.Itoa(id) + suffix
}

func (c *Client) Tables(ctx context.Context) ([]domain.Table, error) {
	var out []domain.Table
	return out, c.do(ctx, http.MethodGet, "/api/v1/tables", nil, nil, &out)
}

func (c *Client) Table(ctx context.Context, id int) (domain.Table, error) {
	var out domain.Table
	return out, c.do(ctx, http.MethodGet, tablePath(id, ""), nil, nil, &out)
}

func (c *Client) ClaimTable(ctx context.Context, id int) (domain.Table, error) {
	var out domain.Table
	return out, c.do(ctx, http.MethodPost, tablePath(id, "/claim"), nil, nil, &out)
}

func (c *Client) ExitTable(ctx context.Context, id int, password string) (domain.CleanupReport, error) {
	var out domain.CleanupReport
	return out, c.do(ctx, http.MethodPost, tablePath(id, "/exit"), nil, domain.PasswordRequest{Password: password}, &out)
}

func (c *Client) Menu(ctx context.Context) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	return out, c.do(ctx, http.MethodGet, "/api/v1/menu", nil, nil, &out)
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	return out, c.do(ctx, http.MethodGet, "/api/v1/menu/categories", nil, nil, &out)
}

func (c *Client) History(ctx context.Context, tableID int) (domain.History, error) {
	var out domain.History
	return out, c.do(ctx, http.MethodGet, tablePath(tableID, "/orders"), nil, nil, &out)
}

func (c *Client) SubmitOrder(ctx context.Context, tableID int, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error) {
	var out domain.CreateOrderResponse
	return out, c.do(ctx, http.MethodPost, tablePath(tableID, "/orders"), nil, req, &out)
}

func (c *Client) CallStaff(ctx context.Context, tableID int, message string) (domain.StaffNotification, error) {
	var out domain.StaffNotification
	return out, c.do(ctx, http.MethodPost, tablePath(tableID, "/call-staff"), nil, domain.CallStaffRequest{Message: message}, &out)
}

func (c *Client) Bill(ctx context.Context, tableID int) (domain.Bill, error) {
	var out domain.Bill
	return out, c.do(ctx, http.MethodGet, tablePath(tableID, "/bill"), nil, nil, &out)
}

// IsNotFound reports a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

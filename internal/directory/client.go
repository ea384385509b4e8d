// Package directory is the HTTP+JSON client for the Guest Directory Service.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rayarayu/checkin/internal/kiosk"
)

const defaultUserAgent = "checkin-kiosk/0.1"

// Client implements kiosk.Directory.
type Client struct {
	client      *http.Client
	baseURL     string
	userAgent   string
	maxBodySize int64

	mu    sync.RWMutex
	token string
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		client:      &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		userAgent:   defaultUserAgent,
		maxBodySize: 1 << 20, // 1 MiB
		token:       strings.TrimSpace(token),
	}
}

type loginRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     kiosk.Role `json:"role"`
}

type loginResponse struct {
	Role  kiosk.Role `json:"role"`
	Token string     `json:"token"`
}

// Login exchanges operator credentials for a bearer token, which the
// client keeps for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string, role kiosk.Role) (kiosk.Session, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", loginRequest{
		Username: username,
		Password: password,
		Role:     role,
	}, &resp)
	if err != nil {
		return kiosk.Session{}, fmt.Errorf("logging in as %q: %w", username, err)
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	return kiosk.Session{Operator: username, Role: resp.Role, Token: resp.Token}, nil
}

type checkInResponse struct {
	Name        string   `json:"name"`
	QtyRecorded *flexInt `json:"qty_recorded"`
	Message     string   `json:"message"`
	Already     flexBool `json:"already"`
}

func (c *Client) CheckIn(ctx context.Context, id kiosk.Identifier) (kiosk.CheckInResult, error) {
	var resp checkInResponse
	path := "/api/invitations/checkin/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodPatch, path, struct{}{}, &resp); err != nil {
		return kiosk.CheckInResult{}, err
	}

	res := kiosk.CheckInResult{
		DisplayName:      resp.Name,
		AlreadyCheckedIn: bool(resp.Already),
		Message:          resp.Message,
	}
	if resp.QtyRecorded != nil {
		res.PartySize = int(*resp.QtyRecorded)
	}
	return res, nil
}

type searchItem struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Qty         *flexInt `json:"qty"`
	QtyUse      *flexInt `json:"qty_use"`
	RealQty     *flexInt `json:"real_qty"`
	QtyRecorded *flexInt `json:"qty_recorded"`
	CheckedIn   flexBool `json:"checked_in"`
}

// partySize picks the first quantity the service filled in.
func (it searchItem) partySize() int {
	for _, q := range []*flexInt{it.Qty, it.QtyUse, it.RealQty, it.QtyRecorded} {
		if q != nil {
			return int(*q)
		}
	}
	return 1
}

func (c *Client) Search(ctx context.Context, query string) ([]kiosk.SearchResult, error) {
	var raw json.RawMessage
	path := "/api/invitations/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	// The service answers with a bare array or {"results": [...]}.
	var items []searchItem
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Results []searchItem `json:"results"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: decoding search results: %v", kiosk.ErrServiceUnavailable, err)
		}
		items = wrapped.Results
	}

	results := make([]kiosk.SearchResult, 0, len(items))
	for _, it := range items {
		if it.Slug == "" {
			continue
		}
		results = append(results, kiosk.SearchResult{
			Identifier:       kiosk.Identifier(it.Slug),
			DisplayName:      it.Name,
			PartySize:        it.partySize(),
			AlreadyCheckedIn: bool(it.CheckedIn),
		})
	}
	return results, nil
}

type summaryResponse struct {
	CheckedIn    *flexInt `json:"checkedInTamu"`
	Total        *flexInt `json:"totalTamu"`
	EstimatedAll *flexInt `json:"estimasi_tamu"`
}

func (c *Client) FetchSummary(ctx context.Context) (kiosk.Summary, error) {
	var resp summaryResponse
	if err := c.do(ctx, http.MethodGet, "/api/summary", nil, &resp); err != nil {
		return kiosk.Summary{}, err
	}

	var s kiosk.Summary
	if resp.CheckedIn != nil {
		s.CheckedInGuests = int(*resp.CheckedIn)
	}
	switch {
	case resp.Total != nil:
		s.TotalGuests = int(*resp.Total)
	case resp.EstimatedAll != nil:
		s.TotalGuests = int(*resp.EstimatedAll)
	}
	return s, nil
}

// Check reports whether the directory answers its health endpoint.
func (c *Client) Check(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &kiosk.ServiceError{
			Kind:    kiosk.ErrServiceUnavailable,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("unreadable response from directory: %v", err),
		}
	}
	return nil
}

func transportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &kiosk.ServiceError{Kind: kiosk.ErrTimeout, Message: kiosk.ErrTimeout.Error()}
	}
	return &kiosk.ServiceError{Kind: kiosk.ErrServiceUnavailable, Message: err.Error()}
}

func statusError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("directory returned %d %s", status, http.StatusText(status))
	}

	kind := kiosk.ErrServiceUnavailable
	switch status {
	case http.StatusNotFound:
		kind = kiosk.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = kiosk.ErrInvalidInput
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		kind = kiosk.ErrTimeout
	}
	return &kiosk.ServiceError{Kind: kind, Status: status, Message: msg}
}

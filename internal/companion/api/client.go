// Package api is the REST client for the SafeDrive backend. Every call
// carries the session bearer token; the push channel is handled
// separately by the stream layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

// Client talks to the collaborator API. Safe for concurrent use; the
// token may be swapped while calls are in flight.
type Client struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient returns a client for the given base URL, e.g.
// "https://api.safedrive.io/api".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SetToken installs the bearer token used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token, empty when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// --- Auth ---

// Login exchanges credentials for a bearer token and installs it.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", &LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Register creates a new account. It does not sign in.
func (c *Client) Register(ctx context.Context, req *RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", req, nil)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Context resolves the viewer's dashboard context.
func (c *Client) Context(ctx context.Context) (*DashboardContext, error) {
	var out DashboardContext
	if err := c.do(ctx, http.MethodGet, "/auth/context", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Vehicles ---

// VehicleCredentials fetches the pairing credentials for a vehicle.
func (c *Client) VehicleCredentials(ctx context.Context, vehicleID string) (*model.VehicleCredentials, error) {
	var out model.VehicleCredentials
	if err := c.do(ctx, http.MethodGet, "/vehicles/"+vehicleID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RotateVehicleKey invalidates the current device key and returns a new one.
func (c *Client) RotateVehicleKey(ctx context.Context, vehicleID string) (*model.VehicleCredentials, error) {
	var out model.VehicleCredentials
	if err := c.do(ctx, http.MethodPut, "/vehicles/"+vehicleID+"/rotate-key", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetActiveVehicle switches the dashboard's active vehicle.
func (c *Client) SetActiveVehicle(ctx context.Context, vehicleID string) (*model.VehicleDevice, error) {
	var out struct {
		ActiveVehicle model.VehicleDevice `json:"activeVehicle"`
	}
	if err := c.do(ctx, http.MethodPut, "/vehicles/"+vehicleID+"/active", nil, &out); err != nil {
		return nil, err
	}
	return &out.ActiveVehicle, nil
}

// AddVehicle registers a vehicle unit.
func (c *Client) AddVehicle(ctx context.Context, req *AddVehicleRequest) (*model.VehicleDevice, error) {
	var out model.VehicleDevice
	if err := c.do(ctx, http.MethodPost, "/vehicles", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVehicle removes a vehicle unit.
func (c *Client) DeleteVehicle(ctx context.Context, vehicleID string) error {
	return c.do(ctx, http.MethodDelete, "/vehicles/"+vehicleID, nil, nil)
}

// UploadCalibration pushes adjusted thresholds to a vehicle unit.
func (c *Client) UploadCalibration(ctx context.Context, vehicleID string, req *CalibrationRequest) error {
	return c.do(ctx, http.MethodPost, "/vehicles/"+vehicleID+"/calibration", req, nil)
}

// --- Members ---

// Members lists the dashboard's member roster.
func (c *Client) Members(ctx context.Context) ([]model.Member, error) {
	var out []model.Member
	if err := c.do(ctx, http.MethodGet, "/members", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMember attaches a registered user to the dashboard by phone number.
func (c *Client) AddMember(ctx context.Context, req *AddMemberRequest) (*model.Member, error) {
	var out model.Member
	if err := c.do(ctx, http.MethodPost, "/members", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMember patches a member record.
func (c *Client) UpdateMember(ctx context.Context, memberID string, req *UpdateMemberRequest) (*model.Member, error) {
	var out model.Member
	if err := c.do(ctx, http.MethodPut, "/members/"+memberID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMember removes a member from the dashboard.
func (c *Client) DeleteMember(ctx context.Context, memberID string) error {
	return c.do(ctx, http.MethodDelete, "/members/"+memberID, nil, nil)
}

// --- Start requests ---

// AskStart opens a car-start request for the given reading.
func (c *Client) AskStart(ctx context.Context, alcoholLevel float64) (*AskResponse, error) {
	var out AskResponse
	if err := c.do(ctx, http.MethodPost, "/requests/ask", &AskRequest{AlcoholLevel: alcoholLevel}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActiveRequest returns the currently open request, or nil when the
// backend answers null.
func (c *Client) ActiveRequest(ctx context.Context) (*ActiveRequestInfo, error) {
	var out *ActiveRequestInfo
	if err := c.do(ctx, http.MethodGet, "/requests/active", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestApprovals fetches the full decision roster for a request.
func (c *Client) RequestApprovals(ctx context.Context, requestID string) (*ApprovalsResponse, error) {
	var out ApprovalsResponse
	if err := c.do(ctx, http.MethodGet, "/requests/"+requestID+"/approvals", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitDecision records one member's verdict.
func (c *Client) SubmitDecision(ctx context.Context, req *DecisionRequest) error {
	return c.do(ctx, http.MethodPost, "/requests/decision", req, nil)
}

// --- Plumbing ---

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res, method, path)
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(res *http.Response, method, path string) error {
	var envelope errorResponse
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if json.Unmarshal(raw, &envelope) == nil {
		if envelope.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, envelope.Error, res.StatusCode)
		}
		if envelope.Message != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, envelope.Message, res.StatusCode)
		}
	}
	return fmt.Errorf("%s %s: unexpected status %d", method, path, res.StatusCode)
}

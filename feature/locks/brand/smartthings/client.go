package smartthings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lock-sync/core/reconcile"
)

// Client is the low-level SmartThings REST client.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewClient builds a Client. A nil httpClient falls back to a client
// with a 30s timeout.
func NewClient(cfg Config, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, log: log}
}

// location is one entry of the account location list.
type location struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
}

// stDevice is one entry of a location's device list.
type stDevice struct {
	DeviceID string `json:"deviceId"`
	Label    string `json:"label"`
}

// command is one entry of a device command request.
type command struct {
	Component  string `json:"component,omitempty"`
	Capability string `json:"capability"`
	Command    string `json:"command"`
	Arguments  []any  `json:"arguments,omitempty"`
}

// Locations lists all locations on the account.
func (c *Client) Locations(ctx context.Context) ([]location, error) {
	var out struct {
		Items []location `json:"items"`
	}
	if err := c.get(ctx, "/locations", &out); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return out.Items, nil
}

// Devices lists the devices of one location.
func (c *Client) Devices(ctx context.Context, locationID string) ([]stDevice, error) {
	var out struct {
		Items []stDevice `json:"items"`
	}
	if err := c.get(ctx, "/devices?locationId="+locationID, &out); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return out.Items, nil
}

// LockCodes reads a device's slot-to-name code table. The platform
// reports it as a JSON string inside the lockCodes attribute.
func (c *Client) LockCodes(ctx context.Context, deviceID string) (map[string]string, error) {
	var status struct {
		Components map[string]struct {
			LockCodes struct {
				LockCodes struct {
					Value string `json:"value"`
				} `json:"lockCodes"`
			} `json:"lockCodes"`
		} `json:"components"`
	}
	if err := c.get(ctx, "/devices/"+deviceID+"/status", &status); err != nil {
		return nil, fmt.Errorf("device status: %w", err)
	}

	raw := status.Components["main"].LockCodes.LockCodes.Value
	if raw == "" {
		return map[string]string{}, nil
	}
	codes := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, fmt.Errorf("decode lock codes: %w", err)
	}
	return codes, nil
}

// Refresh asks the device to push fresh state to the cloud. Callers
// should wait before reading status afterwards.
func (c *Client) Refresh(ctx context.Context, deviceID string) error {
	return c.sendCommand(ctx, deviceID, command{
		Component:  "main",
		Capability: "refresh",
		Command:    "refresh",
	})
}

// SetCode programs slot with a code and name. The same call overwrites
// an occupied slot.
func (c *Client) SetCode(ctx context.Context, deviceID string, slot int, code, name string) error {
	return c.sendCommand(ctx, deviceID, command{
		Capability: "lockCodes",
		Command:    "setCode",
		Arguments:  []any{slot, code, name},
	})
}

// DeleteCode clears slot.
func (c *Client) DeleteCode(ctx context.Context, deviceID string, slot int) error {
	return c.sendCommand(ctx, deviceID, command{
		Capability: "lockCodes",
		Command:    "deleteCode",
		Arguments:  []any{slot},
	})
}

func (c *Client) sendCommand(ctx context.Context, deviceID string, cmd command) error {
	body, err := json.Marshal(map[string]any{"commands": []command{cmd}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/devices/"+deviceID+"/commands", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("command %s: %w", cmd.Command, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{Code: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError is a non-2xx platform response.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// classify wraps err as a VendorError for the engine. 429 throttles are
// rate-limited; other 4xx responses are rejections, except 424, which
// the platform uses for device connectivity trouble.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := reconcile.KindTransient
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusTooManyRequests:
			kind = reconcile.KindRateLimited
		case se.Code == http.StatusFailedDependency:
			kind = reconcile.KindTransient
		case se.Code >= 400 && se.Code < 500:
			kind = reconcile.KindRejected
		}
	}
	return &reconcile.VendorError{Kind: kind, Op: op, Err: err}
}

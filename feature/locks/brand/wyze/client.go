package wyze

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client is the low-level Wyze API client. It logs in lazily and caches
// the access token for the life of the process; lock sync runs are short
// relative to token lifetime.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	mu          sync.Mutex
	accessToken string
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

// hashPassword applies the app login protocol's triple MD5.
func hashPassword(password string) string {
	out := password
	for i := 0; i < 3; i++ {
		sum := md5.Sum([]byte(out))
		out = hex.EncodeToString(sum[:])
	}
	return out
}

// appEnvelope wraps main app API responses. Code is "1" on success.
type appEnvelope struct {
	Code json.Number     `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// lockEnvelope wraps lock API responses. ErrNo is 0 on success.
type lockEnvelope struct {
	ErrNo int             `json:"ErrNo"`
	Msg   string          `json:"ErrMsg"`
	Data  json.RawMessage `json:"data"`
}

// device is one entry of the account device list.
type device struct {
	MAC         string `json:"mac"`
	Nickname    string `json:"nickname"`
	ProductType string `json:"product_type"`
}

// keyPermission is the validity window of one lock key. Begin and End
// are epoch milliseconds; Type is "duration" for windowed guest keys.
type keyPermission struct {
	Type  string `json:"type"`
	Begin int64  `json:"begin"`
	End   int64  `json:"end"`
}

// lockKey is one code slot as reported by the lock API.
type lockKey struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	UserID     string        `json:"userid"`
	Permission keyPermission `json:"permission"`
}

const permissionDuration = "duration"

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" {
		return c.accessToken, nil
	}

	body, err := json.Marshal(map[string]string{
		"email":    c.cfg.Email,
		"password": hashPassword(c.cfg.Password),
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/user/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("keyid", c.cfg.KeyID)
	req.Header.Set("apikey", c.cfg.APIKey)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.doApp(req, &data); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("login: response carried no access token")
	}
	c.accessToken = data.AccessToken
	c.log.Info("logged in to wyze")
	return c.accessToken, nil
}

// Devices lists all devices on the account.
func (c *Client) Devices(ctx context.Context) ([]device, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"access_token": token})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/app/v2/home_page/get_object_list", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var data struct {
		DeviceList []device `json:"device_list"`
	}
	if err := c.doApp(req, &data); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return data.DeviceList, nil
}

// Keys lists the code slots of one lock.
func (c *Client) Keys(ctx context.Context, mac string) ([]lockKey, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{"device_mac": {mac}, "access_token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/app/v2/lock/keys?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Keys []lockKey `json:"keys"`
	}
	if err := c.doLock(req, &data); err != nil {
		return nil, err
	}
	return data.Keys, nil
}

// CreateKey programs a new code slot with a duration permission.
func (c *Client) CreateKey(ctx context.Context, mac, userID, code, name string, begin, end int64) error {
	return c.mutateKey(ctx, http.MethodPost, map[string]any{
		"device_mac": mac,
		"userid":     userID,
		"password":   code,
		"name":       name,
		"permission": keyPermission{Type: permissionDuration, Begin: begin, End: end},
	})
}

// UpdateKey rewrites an existing code slot.
func (c *Client) UpdateKey(ctx context.Context, mac, keyID, userID, code, name string, begin, end int64) error {
	return c.mutateKey(ctx, http.MethodPut, map[string]any{
		"device_mac":  mac,
		"password_id": keyID,
		"userid":      userID,
		"password":    code,
		"name":        name,
		"permission":  keyPermission{Type: permissionDuration, Begin: begin, End: end},
	})
}

// DeleteKey removes a code slot. ErrNo 5021 surfaces as an *apiError;
// the adapter decides it means success.
func (c *Client) DeleteKey(ctx context.Context, mac, keyID string) error {
	return c.mutateKey(ctx, http.MethodDelete, map[string]any{
		"device_mac":  mac,
		"password_id": keyID,
	})
}

func (c *Client) mutateKey(ctx context.Context, method string, payload map[string]any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	payload["access_token"] = token
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+"/app/v2/lock/keys", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doLock(req, nil)
}

func (c *Client) doApp(req *http.Request, out any) error {
	var env appEnvelope
	if err := c.doJSON(req, &env); err != nil {
		return err
	}
	if env.Code.String() != "1" {
		return fmt.Errorf("code %s: %s", env.Code, env.Msg)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) doLock(req *http.Request, out any) error {
	var env lockEnvelope
	if err := c.doJSON(req, &env); err != nil {
		return err
	}
	if env.ErrNo != errNoOK {
		return &apiError{ErrNo: env.ErrNo, Msg: env.Msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

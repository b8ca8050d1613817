package hospitable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-querystring/query"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// tokenSlack is how close to expiry a token is still considered usable.
const tokenSlack = 15 * time.Minute

// Client calls the Hospitable API with a cached bearer token.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	mu    sync.Mutex
	token string
	sf    singleflight.Group
	now   func() time.Time
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
	return &Client{
		cfg:   cfg,
		http:  httpClient,
		log:   log,
		token: cfg.Token,
		now:   time.Now,
	}
}

// Token returns a bearer token with at least tokenSlack of life left,
// logging in when the cached one is missing or about to expire.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.token
	c.mu.Unlock()
	if tokenUsable(cached, c.now()) {
		return cached, nil
	}

	v, err, _ := c.sf.Do("login", func() (interface{}, error) {
		// Re-check under the flight; the winner may have refreshed already.
		c.mu.Lock()
		cached := c.token
		c.mu.Unlock()
		if tokenUsable(cached, c.now()) {
			return cached, nil
		}

		token, err := c.login(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
		c.log.Info("refreshed provider token")
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{
		Email:    c.cfg.Email,
		Password: c.cfg.Password,
		Flow:     "link",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out loginResponse
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if out.Data.Token == "" {
		return "", fmt.Errorf("login: response carried no token")
	}
	return out.Data.Token, nil
}

// tokenUsable reports whether token is a JWT whose exp claim is more
// than tokenSlack past now. The signature is not verified; only the
// expiry matters here.
func tokenUsable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.After(now.Add(tokenSlack))
}

// Properties lists all properties on the account.
func (c *Client) Properties(ctx context.Context) ([]Property, error) {
	req, err := c.authedRequest(ctx, c.cfg.BaseURL+"/properties?pagination=false&transformer=simple")
	if err != nil {
		return nil, err
	}

	var out propertiesResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return out.Data, nil
}

type reservationQuery struct {
	PropertyIDs         string `url:"property_ids"`
	StartsOrEndsBetween string `url:"starts_or_ends_between"`
	// Timezones must stay false: downstream parsing expects naive
	// local timestamps, not offset-qualified ones.
	Timezones                 bool `url:"timezones"`
	CalendarBlockable         bool `url:"calendar_blockable"`
	IncludeFamilyReservations bool `url:"include_family_reservations"`
}

// Reservations fetches the stays for one property that start or end
// between today and LookaheadDays from now.
func (c *Client) Reservations(ctx context.Context, propertyID string) ([]Reservation, error) {
	today := c.now()
	q, err := query.Values(reservationQuery{
		PropertyIDs: propertyID,
		StartsOrEndsBetween: fmt.Sprintf("%s_%s",
			today.Format("2006-01-02"),
			today.AddDate(0, 0, c.cfg.LookaheadDays).Format("2006-01-02")),
		Timezones:                 false,
		CalendarBlockable:         true,
		IncludeFamilyReservations: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := c.authedRequest(ctx, c.cfg.BaseURL+"/reservations?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var out reservationsResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out.Data, nil
}

func (c *Client) authedRequest(ctx context.Context, url string) (*http.Request, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
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

package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/configspace/configcount/pkg/basestate"
)

const feasibilityRoute = "customer-feasibility"

// Config holds the remote configurator coordinates.
type Config struct {
	// Endpoint is the configurator base URL, e.g.
	// https://configurator.porsche.com
	Endpoint string `yaml:"endpoint"`
	Locale   string `yaml:"locale"`
	// Model is the product variant code, e.g. 9921B2.
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client queries the configurator's public feasibility route.
type Client struct {
	HTTPClient *http.Client
	Config     Config
}

var _ Oracle = &Client{}

// NewClient returns a client with the given config. HTTPClient may be
// nil to use a client bounded by the configured timeout.
func NewClient(cfg Config, hc *http.Client) *Client {
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{HTTPClient: hc, Config: cfg}
}

// URL returns the feasibility query URL for adding option to state.
func (c *Client) URL(state basestate.State, option string) string {
	q := url.Values{}
	q.Set("optionAdded", option)
	q.Set("options", state.Key())
	q.Set("_routes", feasibilityRoute)
	return fmt.Sprintf("%s/%s/mode/model/%s/feasibility-notification.data?%s",
		c.Config.Endpoint, c.Config.Locale, c.Config.Model, q.Encode())
}

// Query implements Oracle.
func (c *Client) Query(ctx context.Context, state basestate.State, option string) (Closure, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(state, option), nil)
	if err != nil {
		return Closure{}, errors.Wrap(err, "new request")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Closure{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Closure{}, errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return Closure{}, errors.Errorf("feasibility %s: %s", resp.Status, truncate(string(body), 200))
	}
	decoded, err := DecodePool(body)
	if err != nil {
		return Closure{}, err
	}
	return closureOf(feasibilityRoute, decoded)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

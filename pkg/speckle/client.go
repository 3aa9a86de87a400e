// Package speckle is a minimal client for the collaboration server: project
// and version metadata over GraphQL, and object trees over the objects API.
package speckle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"
)

// ErrNoVersions is returned when a model has no versions to receive.
var ErrNoVersions = errors.New("model has no versions")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to one server. It holds no global state; create one per host.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL string
	base    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// WithBaseURL overrides the https://<host> endpoint.
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the underlying client whose transport carries requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.base = c }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// New creates a client for host. A non-empty token is sent as a bearer
// token on every request.
func New(host, token string, opts ...Option) *Client {
	o := clientOptions{
		baseURL: "https://" + host,
		base:    http.DefaultClient,
		timeout: 60 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	hc := &http.Client{Transport: o.base.Transport, Timeout: o.timeout}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, o.base)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		hc.Timeout = o.timeout
	}

	return &Client{
		baseURL: o.baseURL,
		http:    hc,
		logger:  o.logger,
	}
}

// Receive downloads the object tree rooted at objectID.
func (c *Client) Receive(ctx context.Context, projectID, objectID string) (*object.Node, error) {
	u := fmt.Sprintf("%s/objects/%s/%s", c.baseURL, url.PathEscape(projectID), url.PathEscape(objectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/plain")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("receiving object %s: %w", objectID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	_, objects, err := object.ReadObjectLines(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("receiving object %s: %w", objectID, err)
	}
	root, err := object.DecodeObjects(objectID, objects)
	if err != nil {
		return nil, fmt.Errorf("recomposing object %s: %w", objectID, err)
	}

	c.logger.Debug("received object",
		zap.String("project", projectID),
		zap.String("object", objectID),
		zap.Int("objects", len(objects)),
		zap.Duration("took", time.Since(start)))
	return root, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query posts a GraphQL document and decodes the data field into out.
func (c *Client) query(ctx context.Context, doc string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: doc, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("decoding graphql response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decoding graphql data: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// Package dataverse is the Web API boundary: create and read the
// metadata objects the generator produces. Authentication stays outside
// this package; callers hand in a TokenProvider and this client only
// attaches whatever bearer token it yields.
package dataverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mermdv/generator"
)

const apiPath = "/api/data/v9.2"

// TokenProvider yields a bearer token for each request.
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken wraps an already-acquired access token.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) { return token, nil }
}

// EntityRef identifies an existing table in the environment.
type EntityRef struct {
	LogicalName string `json:"LogicalName"`
	MetadataID  string `json:"MetadataId"`
}

// ChoiceRef identifies an existing global option set.
type ChoiceRef struct {
	Name       string `json:"Name"`
	MetadataID string `json:"MetadataId"`
}

// Client is the capability surface the deployer needs.
type Client interface {
	WhoAmI(ctx context.Context) error
	FindPublisher(ctx context.Context, uniqueName string) (id string, found bool, err error)
	CreatePublisher(ctx context.Context, p generator.Publisher) (id string, err error)
	FindSolution(ctx context.Context, uniqueName string) (id string, found bool, err error)
	CreateSolution(ctx context.Context, s generator.Solution) (id string, err error)
	ListEntities(ctx context.Context) ([]EntityRef, error)
	ListGlobalChoices(ctx context.Context) ([]ChoiceRef, error)
	CreateEntity(ctx context.Context, e generator.EntityMetadata, solution string) error
	CreateAttribute(ctx context.Context, entityLogicalName string, a generator.AttributeMetadata, solution string) error
	CreateRelationship(ctx context.Context, r generator.OneToManyRelationshipMetadata, solution string) error
	CreateGlobalChoice(ctx context.Context, c generator.OptionSetMetadata, solution string) error
}

// HTTPClient talks to a Dataverse environment over the Web API.
type HTTPClient struct {
	baseURL string
	token   TokenProvider
	http    *http.Client
	retry   retryPolicy
	logger  *zap.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *HTTPClient) { c.logger = logger }
}

// NewHTTPClient creates a client for the environment at baseURL
// (e.g. https://org.crm.dynamics.com).
func NewHTTPClient(baseURL string, token TokenProvider, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 120 * time.Second},
		retry:   defaultRetryPolicy(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WhoAmI verifies connectivity and the token in one call.
func (c *HTTPClient) WhoAmI(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/WhoAmI", nil, "")
	return err
}

func (c *HTTPClient) FindPublisher(ctx context.Context, uniqueName string) (string, bool, error) {
	query := url.Values{
		"$select": {"publisherid"},
		"$filter": {fmt.Sprintf("uniquename eq '%s'", uniqueName)},
	}
	return c.findRecord(ctx, "/publishers?"+query.Encode(), "publisherid")
}

func (c *HTTPClient) CreatePublisher(ctx context.Context, p generator.Publisher) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/publishers", p, "")
	if err != nil {
		return "", fmt.Errorf("creating publisher %q: %w", p.UniqueName, err)
	}
	return recordID(body, "publisherid"), nil
}

func (c *HTTPClient) FindSolution(ctx context.Context, uniqueName string) (string, bool, error) {
	query := url.Values{
		"$select": {"solutionid"},
		"$filter": {fmt.Sprintf("uniquename eq '%s'", uniqueName)},
	}
	return c.findRecord(ctx, "/solutions?"+query.Encode(), "solutionid")
}

func (c *HTTPClient) CreateSolution(ctx context.Context, s generator.Solution) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/solutions", s, "")
	if err != nil {
		return "", fmt.Errorf("creating solution %q: %w", s.UniqueName, err)
	}
	return recordID(body, "solutionid"), nil
}

func (c *HTTPClient) ListEntities(ctx context.Context) ([]EntityRef, error) {
	body, err := c.do(ctx, http.MethodGet, "/EntityDefinitions?$select=LogicalName", nil, "")
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	var page struct {
		Value []EntityRef `json:"value"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding entity list: %w", err)
	}
	return page.Value, nil
}

func (c *HTTPClient) ListGlobalChoices(ctx context.Context) ([]ChoiceRef, error) {
	body, err := c.do(ctx, http.MethodGet, "/GlobalOptionSetDefinitions", nil, "")
	if err != nil {
		return nil, fmt.Errorf("listing global choices: %w", err)
	}
	var page struct {
		Value []ChoiceRef `json:"value"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding global choice list: %w", err)
	}
	return page.Value, nil
}

func (c *HTTPClient) CreateEntity(ctx context.Context, e generator.EntityMetadata, solution string) error {
	if _, err := c.do(ctx, http.MethodPost, "/EntityDefinitions", e, solution); err != nil {
		return fmt.Errorf("creating entity %q: %w", e.SchemaName, err)
	}
	return nil
}

func (c *HTTPClient) CreateAttribute(ctx context.Context, entityLogicalName string, a generator.AttributeMetadata, solution string) error {
	path := fmt.Sprintf("/EntityDefinitions(LogicalName='%s')/Attributes", entityLogicalName)
	if _, err := c.do(ctx, http.MethodPost, path, a, solution); err != nil {
		return fmt.Errorf("creating attribute %q on %q: %w", a.SchemaName, entityLogicalName, err)
	}
	return nil
}

func (c *HTTPClient) CreateRelationship(ctx context.Context, r generator.OneToManyRelationshipMetadata, solution string) error {
	if _, err := c.do(ctx, http.MethodPost, "/RelationshipDefinitions", r, solution); err != nil {
		return fmt.Errorf("creating relationship %q: %w", r.SchemaName, err)
	}
	return nil
}

func (c *HTTPClient) CreateGlobalChoice(ctx context.Context, choice generator.OptionSetMetadata, solution string) error {
	if _, err := c.do(ctx, http.MethodPost, "/GlobalOptionSetDefinitions", choice, solution); err != nil {
		return fmt.Errorf("creating global choice %q: %w", choice.Name, err)
	}
	return nil
}

func (c *HTTPClient) findRecord(ctx context.Context, path, idField string) (string, bool, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", false, err
	}
	var page struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return "", false, fmt.Errorf("decoding lookup response: %w", err)
	}
	if len(page.Value) == 0 {
		return "", false, nil
	}
	id, _ := page.Value[0][idField].(string)
	return id, true, nil
}

// do performs one Web API request with bounded retry on throttling.
// The request body is re-marshalled per attempt; there is no shared
// mutable state, so a single client is safe for concurrent use.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, solution string) ([]byte, error) {
	var lastStatus int
	var lastBody string

	for attempt := 0; attempt <= c.retry.maxAttempts; attempt++ {
		body, resp, err := c.once(ctx, method, path, payload, solution)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 300 {
			return body, nil
		}

		lastStatus = resp.StatusCode
		lastBody = strings.TrimSpace(string(body))
		if !retryable(resp.StatusCode) || attempt == c.retry.maxAttempts {
			break
		}

		wait := c.retry.delay(attempt, resp)
		c.logger.Warn("dataverse request throttled, retrying",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("dataverse request %s %s failed: status %d: %s", method, path, lastStatus, lastBody)
}

func (c *HTTPClient) once(ctx context.Context, method, path string, payload any, solution string) ([]byte, *http.Response, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding request payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPath+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquiring access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		// Creates return the stored record so callers can read its id.
		req.Header.Set("Prefer", "return=representation")
	}
	if solution != "" {
		req.Header.Set("MSCRM.SolutionUniqueName", solution)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("dataverse request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("reading response body: %w", err)
	}
	return body, resp, nil
}

func recordID(body []byte, field string) string {
	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil {
		return ""
	}
	id, _ := record[field].(string)
	return id
}

// Package client provides a typed Go client for the Meridian HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Config represents the configuration for the API client
type Config struct {
	// BaseURL is the base URL of the Meridian API
	BaseURL string
	// Token is the identity bearer token used for authenticated routes
	Token string
	// APIKey is an optional organization API key for the /api/ext routes
	APIKey string
	// HTTPClient is an optional custom HTTP client
	HTTPClient *http.Client
	// Timeout is the default request timeout
	Timeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8080",
		HTTPClient: http.DefaultClient,
		Timeout:    10 * time.Second,
	}
}

// Client is the Meridian API client
type Client struct {
	config *Config
	client *http.Client
}

// NewClient creates a new API client with the given configuration
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		config: config,
		client: client,
	}
}

// Profile represents a profile returned by the API
type Profile struct {
	ID                       string  `json:"id"`
	Email                    string  `json:"email"`
	IsSubscribedToNewsletter bool    `json:"isSubscribedToNewsletter"`
	Name                     *string `json:"name,omitempty"`
	AvatarURL                *string `json:"avatarUrl,omitempty"`
}

// Organization represents an organization returned by the API
type Organization struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	APIKey *string `json:"apiKey,omitempty"`
}

// Member represents a joined or invited member of an organization
type Member struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// ResolveProfile creates the profile for the bearer identity, or returns the
// existing one.
func (c *Client) ResolveProfile(ctx context.Context) (*Profile, error) {
	var resp Profile
	if err := c.post(ctx, c.config.BaseURL+"/api/profile", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProfile returns the profile for the bearer identity
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var resp Profile
	if err := c.get(ctx, c.config.BaseURL+"/api/profile", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	IsSubscribedToNewsletter *bool `json:"isSubscribedToNewsletter,omitempty"`
}

// UpdateProfile updates the profile for the bearer identity
func (c *Client) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*Profile, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	var resp Profile
	if err := c.do(ctx, http.MethodPatch, c.config.BaseURL+"/api/profile", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteProfile deletes the profile for the bearer identity along with any
// organizations it solely administers.
func (c *Client) DeleteProfile(ctx context.Context) error {
	return c.delete(ctx, c.config.BaseURL+"/api/profile")
}

// ListOrganizations returns the organizations the bearer identity belongs to
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var resp []Organization
	if err := c.get(ctx, c.config.BaseURL+"/api/organization", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateOrganizationRequest represents an organization creation request
type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

// CreateOrganization creates an organization with the bearer identity as admin
func (c *Client) CreateOrganization(ctx context.Context, req *CreateOrganizationRequest) (*Organization, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.Name == "" {
		return nil, errors.New("name is required")
	}

	var resp Organization
	if err := c.post(ctx, c.config.BaseURL+"/api/organization", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrganization returns a single organization by ID
func (c *Client) GetOrganization(ctx context.Context, organizationID string) (*Organization, error) {
	if organizationID == "" {
		return nil, errors.New("organization_id is required")
	}

	var resp Organization
	endpoint := fmt.Sprintf("%s/api/organization/%s", c.config.BaseURL, url.PathEscape(organizationID))
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateOrganizationRequest represents an organization update request
type UpdateOrganizationRequest struct {
	Name         *string `json:"name,omitempty"`
	ResetAPIKey  *bool   `json:"resetApiKey,omitempty"`
	DeleteAPIKey *bool   `json:"deleteApiKey,omitempty"`
}

// UpdateOrganization updates an organization. Requires the admin role.
func (c *Client) UpdateOrganization(ctx context.Context, organizationID string, req *UpdateOrganizationRequest) (*Organization, error) {
	if organizationID == "" {
		return nil, errors.New("organization_id is required")
	}
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	var resp Organization
	endpoint := fmt.Sprintf("%s/api/organization/%s", c.config.BaseURL, url.PathEscape(organizationID))
	if err := c.do(ctx, http.MethodPatch, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteOrganization deletes an organization. Requires the admin role.
func (c *Client) DeleteOrganization(ctx context.Context, organizationID string) error {
	if organizationID == "" {
		return errors.New("organization_id is required")
	}

	endpoint := fmt.Sprintf("%s/api/organization/%s", c.config.BaseURL, url.PathEscape(organizationID))
	return c.delete(ctx, endpoint)
}

// ListMembers returns the joined and invited members of an organization
func (c *Client) ListMembers(ctx context.Context, organizationID string) ([]Member, error) {
	if organizationID == "" {
		return nil, errors.New("organization_id is required")
	}

	var resp []Member
	endpoint := fmt.Sprintf("%s/api/organization/%s/members", c.config.BaseURL, url.PathEscape(organizationID))
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GrantRoleRequest represents a role grant request
type GrantRoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GrantRole grants a role to a member by email, inviting them if no profile
// with that email exists yet. Requires the admin role.
func (c *Client) GrantRole(ctx context.Context, organizationID string, req *GrantRoleRequest) (*Member, error) {
	if organizationID == "" {
		return nil, errors.New("organization_id is required")
	}
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.Email == "" || req.Role == "" {
		return nil, errors.New("email and role are required")
	}

	var resp Member
	endpoint := fmt.Sprintf("%s/api/organization/%s/members", c.config.BaseURL, url.PathEscape(organizationID))
	if err := c.do(ctx, http.MethodPut, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RevokeRole removes a member or pending invitation by email. Requires the
// admin role.
func (c *Client) RevokeRole(ctx context.Context, organizationID, email string) error {
	if organizationID == "" || email == "" {
		return errors.New("organization_id and email are required")
	}

	endpoint := fmt.Sprintf("%s/api/organization/%s/members/%s",
		c.config.BaseURL, url.PathEscape(organizationID), url.PathEscape(email))
	return c.delete(ctx, endpoint)
}

// GetOrganizationByAPIKey returns the organization that owns the configured
// API key, using the /api/ext surface.
func (c *Client) GetOrganizationByAPIKey(ctx context.Context) (*Organization, error) {
	if c.config.APIKey == "" {
		return nil, errors.New("api_key is required")
	}

	var resp Organization
	if err := c.get(ctx, c.config.BaseURL+"/api/ext/organization", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// APIError defines a standardized error response from the API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (Status: %d)", e.Message, e.StatusCode)
}

func (c *Client) post(ctx context.Context, endpoint string, req interface{}, resp interface{}) error {
	return c.do(ctx, http.MethodPost, endpoint, req, resp)
}

func (c *Client) get(ctx context.Context, endpoint string, resp interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, resp)
}

func (c *Client) delete(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// do performs a request against the given endpoint, marshaling req as the
// JSON body when non-nil and unmarshaling the response into resp when non-nil
func (c *Client) do(ctx context.Context, method, endpoint string, req interface{}, resp interface{}) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var body *bytes.Buffer
	if req != nil {
		reqBody, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(reqBody)
	} else {
		body = &bytes.Buffer{}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if c.config.APIKey != "" {
		httpReq.Header.Set("X-Api-Key", c.config.APIKey)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.NewDecoder(httpResp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			return &APIError{
				StatusCode: httpResp.StatusCode,
				Message:    fmt.Sprintf("request failed with status code %d", httpResp.StatusCode),
			}
		}

		apiErr.StatusCode = httpResp.StatusCode
		return &apiErr
	}

	if resp == nil {
		return nil
	}

	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

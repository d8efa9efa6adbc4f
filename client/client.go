// Package client is a typed consumer of the catalog API. It attaches the
// session's bearer token to every request and ends the session when the
// API answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  uint            `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at"`
}

type ProductPage struct {
	Data        []Product `json:"data"`
	CurrentPage int       `json:"current_page"`
	PerPage     int       `json:"per_page"`
	Total       int64     `json:"total"`
	LastPage    int       `json:"last_page"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// NewProduct is the create body.
type NewProduct struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  uint            `json:"category_id"`
}

// ProductPatch is a partial update; nil fields are not sent.
// ClearDescription sends an explicit null, which removes the description.
type ProductPatch struct {
	Name             *string
	Description      *string
	ClearDescription bool
	Price            *decimal.Decimal
	CategoryID       *uint
}

func (p ProductPatch) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, 4)
	if p.Name != nil {
		body["name"] = *p.Name
	}
	switch {
	case p.ClearDescription:
		body["description"] = nil
	case p.Description != nil:
		body["description"] = *p.Description
	}
	if p.Price != nil {
		body["price"] = *p.Price
	}
	if p.CategoryID != nil {
		body["category_id"] = *p.CategoryID
	}
	return json.Marshal(body)
}

type ListOptions struct {
	Search     string
	CategoryID uint
	Page       int
	PerPage    int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	if o.CategoryID != 0 {
		v.Set("category_id", strconv.FormatUint(uint64(o.CategoryID), 10))
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(o.PerPage))
	}
	return v
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL           string
	http              *http.Client
	session           *Session
	onUnauthenticated func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUnauthenticatedHandler registers fn to run after a 401 has cleared
// the session, typically to send the user back to the login view.
func WithUnauthenticatedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthenticated = fn }
}

// New returns a client for the API rooted at baseURL (e.g. http://host/api).
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// Login exchanges credentials for a token and starts the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, &out); err != nil {
		return err
	}
	if out.Token == "" {
		return fmt.Errorf("login: no token in response")
	}
	return c.session.Login(out.Token)
}

// Logout revokes the token server-side and always ends the local session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
	if clearErr := c.session.Logout(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) ListProducts(ctx context.Context, opts ListOptions) (*ProductPage, error) {
	var page ProductPage
	if err := c.do(ctx, http.MethodGet, "/products", opts.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, productPath(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, in NewProduct) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPost, "/products", nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct sends a PATCH with only the fields set in patch.
func (c *Client) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPatch, productPath(id), nil, patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	var out struct {
		Status bool `json:"status"`
	}
	if err := c.do(ctx, http.MethodDelete, productPath(id), nil, nil, &out); err != nil {
		return err
	}
	if !out.Status {
		return fmt.Errorf("delete product %d: not acknowledged", id)
	}
	return nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*Category, error) {
	var out Category
	if err := c.do(ctx, http.MethodPost, "/categories", nil, map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.session.Logout()
		if c.onUnauthenticated != nil {
			c.onUnauthenticated()
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func productPath(id uint) string {
	return "/products/" + strconv.FormatUint(uint64(id), 10)
}

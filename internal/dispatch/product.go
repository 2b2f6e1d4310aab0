// Package dispatch drives the storefront's product actions against the API
// and reports each request's lifecycle as a sequence of events.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

type Event struct {
	Type    string
	Payload any
}

type Dispatch func(Event)

type NewProduct struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Tags          string   `json:"tags,omitempty"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	DiscountPrice float64  `json:"discountPrice"`
	Stock         int      `json:"stock"`
	ShopID        string   `json:"shopId"`
	Images        []string `json:"images"`
}

// RequestError carries the server's message for a failed call, or the
// transport error text when there is no response.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type ProductActions struct {
	baseURL string
	client  *http.Client
}

// NewProductActions returns actions against baseURL. A nil client gets a
// cookie jar so the session cookie travels with every call.
func NewProductActions(baseURL string, client *http.Client) (*ProductActions, error) {
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		client = &http.Client{Jar: jar, Timeout: 15 * time.Second}
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &ProductActions{baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
}

func (a *ProductActions) CreateProduct(ctx context.Context, product NewProduct, dispatch Dispatch) {
	dispatch(Event{Type: "productCreateRequest"})

	var resp struct {
		Product json.RawMessage `json:"product"`
	}
	if err := a.do(ctx, http.MethodPost, "/product/create-product", product, &resp); err != nil {
		dispatch(Event{Type: "productCreateFail", Payload: failure(err)})
		return
	}
	dispatch(Event{Type: "productCreateSuccess", Payload: resp.Product})
}

func (a *ProductActions) GetAllProductsShop(ctx context.Context, shopID string, dispatch Dispatch) {
	dispatch(Event{Type: "getAllProductsShopRequest"})

	var resp struct {
		Products json.RawMessage `json:"products"`
	}
	if err := a.do(ctx, http.MethodGet, "/product/get-all-products-shop/"+url.PathEscape(shopID), nil, &resp); err != nil {
		dispatch(Event{Type: "getAllProductsShopFailed", Payload: failure(err)})
		return
	}
	dispatch(Event{Type: "getAllProductsShopSuccess", Payload: resp.Products})
}

// DeleteProduct also returns the failure so callers can surface it.
func (a *ProductActions) DeleteProduct(ctx context.Context, id string, dispatch Dispatch) error {
	dispatch(Event{Type: "deleteProductRequest"})

	var resp struct {
		Message string `json:"message"`
	}
	if err := a.do(ctx, http.MethodDelete, "/product/delete-shop-product/"+url.PathEscape(id), nil, &resp); err != nil {
		dispatch(Event{Type: "deleteProductFailed", Payload: failure(err)})
		return err
	}
	dispatch(Event{Type: "deleteProductSuccess", Payload: resp.Message})
	return nil
}

func (a *ProductActions) GetAllProducts(ctx context.Context, dispatch Dispatch) {
	dispatch(Event{Type: "getAllProductsRequest"})

	var resp struct {
		Products json.RawMessage `json:"products"`
	}
	if err := a.do(ctx, http.MethodGet, "/product/get-all-products", nil, &resp); err != nil {
		dispatch(Event{Type: "getAllProductsFailed", Payload: failure(err)})
		return
	}
	dispatch(Event{Type: "getAllProductsSuccess", Payload: resp.Products})
}

func (a *ProductActions) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Message: err.Error()}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return &RequestError{Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return &RequestError{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &RequestError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &RequestError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &RequestError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}

func failure(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}

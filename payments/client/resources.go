package client

import (
	"context"
	"net/url"
	"strconv"
)

// Amount is a balance amount in the smallest currency unit.
type Amount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Balance is the account balance.
type Balance struct {
	Object    string   `json:"object"`
	Livemode  bool     `json:"livemode"`
	Available []Amount `json:"available"`
	Pending   []Amount `json:"pending"`
}

// Balance retrieves the current account balance.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	var b Balance
	if err := c.get(ctx, "/v1/balance", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Customer is a Stripe customer.
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Created  int64             `json:"created"`
	Metadata map[string]string `json:"metadata"`
}

// CustomerList is one page of customers.
type CustomerList struct {
	Data    []Customer `json:"data"`
	HasMore bool       `json:"has_more"`
}

// Customers returns the customers resource.
func (c *Client) Customers() *Customers {
	return &Customers{client: c}
}

// Customers wraps the /v1/customers endpoints.
type Customers struct {
	client *Client
}

// List returns up to limit customers, starting after the given customer id.
func (r *Customers) List(ctx context.Context, limit int, startingAfter string) (*CustomerList, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if startingAfter != "" {
		params.Set("starting_after", startingAfter)
	}
	var out CustomerList
	if err := r.client.get(ctx, "/v1/customers", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates a customer.
func (r *Customers) Create(ctx context.Context, email, name string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)
	if name != "" {
		form.Set("name", name)
	}
	var out Customer
	if err := r.client.post(ctx, "/v1/customers", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

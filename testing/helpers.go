// Package testing provides test utilities for jsonbind.
package testing

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/zoobzio/jsonbind"
)

// Registered names of the fixture adapters.
const (
	MoneyAdapterName    = "testing.money"
	CurrencyAdapterName = "testing.currency"
)

// Register makes the fixture adapters available to tags.
func Register() {
	jsonbind.RegisterType[MoneyAdapter](MoneyAdapterName)
	jsonbind.RegisterType[CurrencyAdapter](CurrencyAdapterName)
}

// Money is an amount in cents.
type Money int64

// MoneyAdapter renders Money as "12.34".
type MoneyAdapter struct{}

// AdaptToJSON implements jsonbind.Adapter[Money, string].
func (MoneyAdapter) AdaptToJSON(m Money) (string, error) {
	return fmt.Sprintf("%d.%02d", m/100, m%100), nil
}

// AdaptFromJSON implements jsonbind.Adapter[Money, string].
func (MoneyAdapter) AdaptFromJSON(s string) (Money, error) {
	whole, frac, _ := strings.Cut(s, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	var f int64
	if frac != "" {
		if f, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return 0, err
		}
	}
	return Money(w*100 + f), nil
}

// CurrencyAdapter is declared from the JSON side: its From is string.
type CurrencyAdapter struct{}

// AdaptToJSON implements jsonbind.Adapter[string, Currency].
func (CurrencyAdapter) AdaptToJSON(s string) (Currency, error) {
	return Currency(strings.ToUpper(s)), nil
}

// AdaptFromJSON implements jsonbind.Adapter[string, Currency].
func (CurrencyAdapter) AdaptFromJSON(c Currency) (string, error) {
	return strings.ToLower(string(c)), nil
}

// Currency is an ISO currency code.
type Currency string

// SimpleUser is a test type with no binding tags.
type SimpleUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Invoice is a test type exercising converters and naming.
type Invoice struct {
	ID       string   `json:"id"`
	Total    Money    `json:"total" jsonb.adapter:"testing.money"`
	Currency Currency `json:"currency" jsonb.adapter:"testing.currency"`
	Items    []Money  `json:"items" jsonb.adapter:"testing.money"`
	Rate     float64  `json:"rate" jsonb.number:"0.00"`
	Internal string   `json:"-"`
	Notes    string   `json:"notes,nillable"`
}

// CountingProvider wraps a provider and counts creations and releases.
type CountingProvider struct {
	Created  atomic.Int64
	Released atomic.Int64
}

// Create implements jsonbind.Provider.
func (p *CountingProvider) Create(t reflect.Type) (jsonbind.Instance, error) {
	inst, err := jsonbind.DefaultProvider{}.Create(t)
	if err != nil {
		return nil, err
	}
	p.Created.Add(1)
	return jsonbind.NewInstance(inst.Value(), func() error {
		p.Released.Add(1)
		return inst.Release()
	}), nil
}

// NewEngine creates an engine that counts its instances, panicking on invalid options.
func NewEngine(opts ...jsonbind.Option) (*jsonbind.Engine, *CountingProvider) {
	p := &CountingProvider{}
	e, err := jsonbind.New(append([]jsonbind.Option{jsonbind.WithProvider(p)}, opts...)...)
	if err != nil {
		panic(err)
	}
	return e, p
}

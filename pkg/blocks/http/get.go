// Package http provides blocks performing network requests.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// DefaultTimeout bounds a request when the Timeout parameter is not set.
const DefaultTimeout = 10 * time.Second

// Get fetches its string input URL. The request runs through Context.Await
// so a cancelled execution abandons it.
type Get struct {
	block.Base
	client  *http.Client
	headers *value.Table
	timeout time.Duration
	asBytes bool
}

// New returns a constructor for Http.Get blocks using client. A nil client
// uses http.DefaultClient.
func New(client *http.Client) block.Constructor {
	if client == nil {
		client = http.DefaultClient
	}
	return func() block.Block {
		return &Get{client: client, timeout: DefaultTimeout, headers: value.NewTable()}
	}
}

func (g *Get) Name() string { return "Http.Get" }

func (g *Get) Hash() value.TypeTag { return block.HashOf(g.Name()) }

func (g *Get) Help() string {
	return "Performs a GET request to the input URL and outputs the response body."
}

func (g *Get) InputTypes() value.Types { return value.Types{value.StringType} }

func (g *Get) OutputTypes() value.Types {
	if g.asBytes {
		return value.BytesTypes
	}
	return value.Types{value.StringType}
}

func (g *Get) Parameters() block.Parameters {
	return block.Parameters{
		{Name: "Headers", Help: "Request headers, as a table of strings.", Types: value.Types{value.TableType, value.NoneType}},
		{Name: "Timeout", Help: "Request timeout in seconds.", Types: value.Types{value.FloatType, value.IntType}},
		{Name: "Bytes", Help: "Output the body as bytes instead of a string.", Types: value.Types{value.BoolType}},
	}
}

func (g *Get) SetParam(i int, v value.Value) error {
	switch i {
	case 0:
		if v.IsNone() {
			g.headers = value.NewTable()
			return nil
		}
		t, err := v.AsTable()
		if err != nil {
			return fault.Wrap(fault.KindInvalidParameter, err, "Headers must be a table")
		}
		for k, h := range t.All() {
			if _, err := h.AsString(); err != nil {
				return fault.Wrap(fault.KindInvalidParameter, err, "header %s must be a string", k)
			}
		}
		g.headers = t.Clone()
	case 1:
		var secs float64
		if n, err := v.AsInt(); err == nil {
			secs = float64(n)
		} else if f, err := v.AsFloat(); err == nil {
			secs = f
		} else {
			return fault.Wrap(fault.KindInvalidParameter, err, "Timeout must be a number")
		}
		if secs <= 0 {
			return fault.InvalidParameter("Timeout must be positive, got %g", secs)
		}
		g.timeout = time.Duration(secs * float64(time.Second))
	case 2:
		b, err := v.AsBool()
		if err != nil {
			return fault.Wrap(fault.KindInvalidParameter, err, "Bytes must be a bool")
		}
		g.asBytes = b
	default:
		return g.Base.SetParam(i, v)
	}
	return nil
}

func (g *Get) GetParam(i int) value.Value {
	switch i {
	case 0:
		return value.TableOf(g.headers)
	case 1:
		return value.Float(g.timeout.Seconds())
	case 2:
		return value.Bool(g.asBytes)
	default:
		return value.None()
	}
}

func (g *Get) Activate(ctx *block.Context, input value.Value) (value.Value, error) {
	url, err := input.AsString()
	if err != nil {
		return value.None(), err
	}

	return ctx.Await(func(c context.Context) (value.Value, error) {
		c, cancel := context.WithTimeout(c, g.timeout)
		defer cancel()

		body, err := g.fetch(c, url)
		if err != nil {
			return value.None(), err
		}
		if g.asBytes {
			return value.Bytes(body), nil
		}
		return value.String(string(body)), nil
	})
}

func (g *Get) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fault.External(err, "Failed to build request")
	}
	for k, h := range g.headers.All() {
		s, _ := h.AsString()
		req.Header.Set(k, s)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fault.External(err, "Failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.External(err, "Failed to read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fault.External(fmt.Errorf("status %d", resp.StatusCode), "Http request failed")
	}
	return body, nil
}

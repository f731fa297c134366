package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello " + r.Header.Get("X-Who")))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, ctx *block.Context, b block.Block, url string) (value.Value, error) {
	t.Helper()
	inst := block.NewInstance(b)
	require.NoError(t, inst.Warmup(ctx))
	defer inst.Cleanup()
	return inst.Activate(ctx, value.String(url))
}

func TestGet(t *testing.T) {
	srv := newServer(t)
	ctx := block.NewContext(context.Background(), nil)

	headers := value.NewTable()
	headers.Set("X-Who", value.String("lattice"))

	b := New(srv.Client())()
	require.NoError(t, block.SetParamByName(b, "Headers", value.TableOf(headers)))

	out, err := run(t, ctx, b, srv.URL+"/hello")
	require.NoError(t, err)
	assert.True(t, value.Equal(value.String("hello lattice"), out), "got %s", out)

	require.NoError(t, block.SetParamByName(b, "Bytes", value.Bool(true)))
	assert.Equal(t, "bytes", b.OutputTypes().Name())
	out, err = run(t, ctx, b, srv.URL+"/hello")
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Bytes([]byte("hello lattice")), out))
}

func TestGet_Failures(t *testing.T) {
	srv := newServer(t)
	ctx := block.NewContext(context.Background(), nil)

	_, err := run(t, ctx, New(srv.Client())(), srv.URL+"/missing")
	require.ErrorIs(t, err, fault.ErrExternalFailure)
	assert.Contains(t, err.Error(), "status 404")

	b := New(srv.Client())()
	require.NoError(t, block.SetParamByName(b, "Timeout", value.Float(0.05)))
	_, err = run(t, ctx, b, srv.URL+"/slow")
	assert.ErrorIs(t, err, fault.ErrExternalFailure)

	_, err = run(t, ctx, New(nil)(), "://bad")
	assert.ErrorIs(t, err, fault.ErrExternalFailure)
}

func TestGet_CancelledExecution(t *testing.T) {
	srv := newServer(t)
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ctx := block.NewContext(parent, nil)

	_, err := run(t, ctx, New(srv.Client())(), srv.URL+"/slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGet_Params(t *testing.T) {
	b := New(nil)()
	assert.ErrorIs(t, block.SetParamByName(b, "Timeout", value.Int(0)), fault.ErrInvalidParameter)
	require.NoError(t, block.SetParamByName(b, "Timeout", value.Int(2)))
	assert.True(t, value.Equal(value.Float(2), b.GetParam(1)))

	bad := value.NewTable()
	bad.Set("X-Num", value.Int(1))
	assert.ErrorIs(t, block.SetParamByName(b, "Headers", value.TableOf(bad)), fault.ErrInvalidParameter)
}

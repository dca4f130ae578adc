package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/pedidos-live/internal/status"
)

func TestFetchByBusiness_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/business/biz-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"id":"o1","business_id":"biz-1","status":"pending","total":"91.00",
			 "items":[{"name":"Tacos","quantity":2,"price":"45.50"}],
			 "status_history":[{"status":"pending","timestamp":"2026-08-01T12:00:00Z"}]},
			{"id":"o2","business_id":"biz-1","status":"ready","total":"25.00",
			 "items":[{"name":"Agua","quantity":1,"price":"25.00"}],
			 "status_history":[{"status":"pending","timestamp":"2026-08-01T11:00:00Z"}]}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	orders, err := c.FetchByBusiness(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, status.Ready, orders[1].Status)
}

func TestMutateStatus_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/orders/o1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":
			{"id":"o1","status":"accepted","total":"91.00",
			 "status_history":[{"status":"pending","timestamp":"2026-08-01T12:00:00Z"},
			                   {"status":"accepted","timestamp":"2026-08-01T12:05:00Z","note":"Confirmado"}]}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	o, err := c.MutateStatus(context.Background(), "o1", status.Accepted, "Confirmado")
	require.NoError(t, err)
	assert.Equal(t, status.Accepted, o.Status)
	last, ok := o.LastHistory()
	require.True(t, ok)
	assert.Equal(t, "Confirmado", last.Note)
}

func TestDo_SuccessFalseEnvelopeIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"negocio cerrado"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchByBusiness(context.Background(), "biz-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "negocio cerrado", apiErr.Message)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
}

func TestDo_ConflictBecomesConflictError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"transición ilegal"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).MutateStatus(context.Background(), "o1", status.Completed, "")
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "transición ilegal", conflict.Message)
}

func TestDo_ServerDownIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := NewClient(srv.URL).FetchByBusiness(context.Background(), "biz-1")
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
}

func TestDo_ContextTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL).FetchByBusiness(ctx, "biz-1")
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
}

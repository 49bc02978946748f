package inference

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCallerSendsOneRequest(t *testing.T) {
	var (
		hits    int
		gotAuth string
		gotAcc  string
		gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		gotAuth = r.Header.Get("Authorization")
		gotAcc = r.Header.Get("Accept")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png"))
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	defer client.CloseIdleConnections()

	a := NewHTTPCaller(client).Call(context.Background(), Request{
		URL:    srv.URL,
		Token:  "hf_token",
		Accept: "image/png",
		Body:   []byte(`{"inputs":"a cat"}`),
	})

	require.NoError(t, a.Err)
	assert.Equal(t, 1, hits)
	assert.Equal(t, http.StatusOK, a.StatusCode)
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, []byte("png"), a.Body)
	assert.Equal(t, "Bearer hf_token", gotAuth)
	assert.Equal(t, "image/png", gotAcc)
	assert.JSONEq(t, `{"inputs":"a cat"}`, gotBody)
}

func TestHTTPCallerDoesNotRetryItself(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := &http.Client{}
	defer client.CloseIdleConnections()

	a := NewHTTPCaller(client).Call(context.Background(), Request{URL: srv.URL})
	require.NoError(t, a.Err)
	assert.Equal(t, http.StatusServiceUnavailable, a.StatusCode)
	assert.Equal(t, 1, hits)
}

func TestHTTPCallerTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewHTTPCaller(nil).Call(context.Background(), Request{URL: url})
	require.Error(t, a.Err)
	assert.Equal(t, KindFatal, Classify(a, ExpectImage).Kind)
}

func TestHTTPCallerRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	caller := NewHTTPCaller(nil)
	caller.maxBytes = 8

	a := caller.Call(context.Background(), Request{URL: srv.URL})
	require.ErrorIs(t, a.Err, ErrResponseTooLarge)
	assert.Nil(t, a.Body)

	out := Classify(a, ExpectImage)
	assert.Equal(t, KindFatal, out.Kind)
	assert.Equal(t, ErrProtocol, out.Reason)

	caller.maxBytes = 10
	a = caller.Call(context.Background(), Request{URL: srv.URL})
	require.NoError(t, a.Err)
	assert.Equal(t, KindBinarySuccess, Classify(a, ExpectImage).Kind)
}

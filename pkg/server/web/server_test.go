package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/msghub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, basePath string) *Server {
	t.Helper()
	conf := &config.Root{Web: config.Web{Addr: "127.0.0.1:0", BasePath: basePath}}
	return NewServer(conf, nil, nil, msghub.New(1, extension.NewHost()))
}

func serve(s http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestServerRoutesHandler(t *testing.T) {
	s := newTestServer(t, "/dumbster")
	var got *Context
	s.Router.Path("/ping").Methods(http.MethodGet).Handler(
		Handler(func(w http.ResponseWriter, req *http.Request, ctx *Context) error {
			got = ctx
			return RenderJSON(w, map[string]string{"id": ctx.Vars["id"]})
		}))

	w := serve(s, http.MethodGet, "/dumbster/ping")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	require.NotNil(t, got)
	assert.Same(t, s.rootConfig, got.RootConfig)
	assert.Same(t, s.msgHub, got.MsgHub)
}

func TestServerHandlerError(t *testing.T) {
	s := newTestServer(t, "")
	s.Router.Path("/broken").Handler(
		Handler(func(http.ResponseWriter, *http.Request, *Context) error {
			return errors.New("store on fire")
		}))

	w := serve(s, http.MethodGet, "/broken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "store on fire")
}

func TestServerUnrouted(t *testing.T) {
	s := newTestServer(t, "")
	s.Router.Path("/only-get").Methods(http.MethodGet).Handler(
		Handler(func(http.ResponseWriter, *http.Request, *Context) error { return nil }))

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/nowhere").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodPut, "/only-get").Code)
}

func TestServerSubrouterUnrouted(t *testing.T) {
	s := newTestServer(t, "/dumbster")
	api := s.Subrouter("/api/")
	api.Path("/v1/items").Methods(http.MethodGet).Handler(
		Handler(func(http.ResponseWriter, *http.Request, *Context) error { return nil }))
	api.Path("/v1/items/{id}").Methods(http.MethodDelete).Handler(
		Handler(func(http.ResponseWriter, *http.Request, *Context) error { return nil }))

	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/dumbster/api/v1/items").Code)
	assert.Equal(t, http.StatusMethodNotAllowed,
		serve(s, http.MethodPost, "/dumbster/api/v1/items").Code)
	assert.Equal(t, http.StatusMethodNotAllowed,
		serve(s, http.MethodGet, "/dumbster/api/v1/items/7").Code)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/dumbster/api/v2/items").Code)
}

func TestHandlerOutsideServer(t *testing.T) {
	h := Handler(func(http.ResponseWriter, *http.Request, *Context) error { return nil })
	w := serve(h, http.MethodGet, "/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "not routed by web.Server")
}

func TestServerStartStops(t *testing.T) {
	s := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()
	<-done
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/msghub"
	"github.com/inbucket/dumbster/pkg/server/web"
	"github.com/jhillyerd/enmime/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost/api/v1"

// setupWebServer creates a web server with the REST routes, and a running msghub.
func setupWebServer(t *testing.T, mm message.Manager) (*web.Server, *msghub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := msghub.New(10, extension.NewHost())
	go hub.Start(ctx)

	cfg := &config.Root{Web: config.Web{Addr: "127.0.0.1:0"}}
	server := web.NewServer(cfg, nil, mm, hub)
	SetupRoutes(server.Subrouter("/api/"))
	return server, hub
}

func testRestRequest(s http.Handler, method, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, nil)
	req.Header.Add("Accept", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

// newTestMessage parses source into a Message with the provided ID and envelope.
func newTestMessage(t *testing.T, id string, recipients []string, source string) *message.Message {
	t.Helper()
	env, err := enmime.ReadEnvelope(strings.NewReader(source))
	require.NoError(t, err)

	from, _ := env.AddressList("From")
	to, _ := env.AddressList("To")
	meta := event.MessageMetadata{
		ID:      id,
		To:      to,
		Date:    time.Date(2012, 2, 1, 10, 11, 12, 0, time.UTC),
		Subject: env.GetHeader("Subject"),
		Size:    int64(len(source)),
	}
	if len(from) > 0 {
		meta.From = from[0]
	}
	return message.New(meta, recipients, env)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()
	var result any
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&result),
		"body: %s", w.Body.String())
	return result
}

func decodedStringEquals(t *testing.T, json any, path string, want string) {
	t.Helper()
	val, msg := getDecodedPath(json, strings.Split(path, "/")...)
	require.Empty(t, msg, "JSON result%s", msg)
	assert.Equal(t, want, val, "JSON result/%s", path)
}

func decodedNumberEquals(t *testing.T, json any, path string, want float64) {
	t.Helper()
	val, msg := getDecodedPath(json, strings.Split(path, "/")...)
	require.Empty(t, msg, "JSON result%s", msg)
	assert.Equal(t, want, val, "JSON result/%s", path)
}

// getDecodedPath recursively navigates the specified path, returning the requested element.  If
// something goes wrong, the returned string will contain an explanation.
//
// Named path elements require the parent element to be a map[string]any, numbers in square
// brackets require the parent element to be a []any.
//
//	getDecodedPath(o, "users", "[1]", "name")
//
// is equivalent to the JavaScript:
//
//	o.users[1].name
func getDecodedPath(o any, path ...string) (any, string) {
	if len(path) == 0 {
		return o, ""
	}
	if o == nil {
		return nil, " is nil"
	}
	key := path[0]
	var val any
	if key[0] == '[' {
		index, err := strconv.Atoi(strings.Trim(key, "[]"))
		if err != nil {
			return nil, "/" + key + " is not a slice index"
		}
		oslice, ok := o.([]any)
		if !ok {
			return nil, " is not a slice"
		}
		if index >= len(oslice) {
			return nil, "/" + key + " is out of bounds"
		}
		val = oslice[index]
	} else {
		omap, ok := o.(map[string]any)
		if !ok {
			return nil, " is not a map"
		}
		if val, ok = omap[key]; !ok {
			return nil, "/" + key + " is missing"
		}
	}
	result, msg := getDecodedPath(val, path[1:]...)
	if msg != "" {
		return nil, "/" + key + msg
	}
	return result, ""
}

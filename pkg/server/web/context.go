package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/msghub"
)

// Context is passed into every request handler function.
type Context struct {
	Vars       map[string]string
	MsgHub     *msghub.Hub
	Manager    message.Manager
	RootConfig *config.Root
	IsJSON     bool
}

type serverKey struct{}

// injectContext makes the server available to NewContext.
func (s *Server) injectContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), serverKey{}, s)))
	})
}

// NewContext returns a Context for the given HTTP Request.  The request must have been routed by
// a Server.
func NewContext(req *http.Request) (*Context, error) {
	s, ok := req.Context().Value(serverKey{}).(*Server)
	if !ok {
		return nil, errors.New("request was not routed by web.Server")
	}
	return &Context{
		Vars:       mux.Vars(req),
		MsgHub:     s.msgHub,
		Manager:    s.manager,
		RootConfig: s.rootConfig,
		IsJSON:     headerMatch(req, "Accept", "application/json"),
	}, nil
}

// headerMatch returns true if the request header specified by name contains the specified value.
// Case is ignored.
func headerMatch(req *http.Request, name string, value string) bool {
	for _, hv := range req.Header.Values(name) {
		if strings.EqualFold(value, hv) {
			return true
		}
	}
	return false
}

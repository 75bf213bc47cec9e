package rest

import (
	"github.com/gorilla/mux"
	"github.com/inbucket/dumbster/pkg/server/web"
)

// SetupRoutes populates the routes for the REST interface.
func SetupRoutes(r *mux.Router) {
	r.Path("/v1/messages").Handler(
		web.Handler(MessageListV1)).Name("MessageListV1").Methods("GET")
	r.Path("/v1/messages").Handler(
		web.Handler(MessagePurgeV1)).Name("MessagePurgeV1").Methods("DELETE")
	r.Path("/v1/messages/{id}").Handler(
		web.Handler(MessageShowV1)).Name("MessageShowV1").Methods("GET")
	r.Path("/v1/messages/{id}").Handler(
		web.Handler(MessageDeleteV1)).Name("MessageDeleteV1").Methods("DELETE")
	r.Path("/v1/messages/{id}/source").Handler(
		web.Handler(MessageSourceV1)).Name("MessageSourceV1").Methods("GET")
	r.Path("/v1/monitor/messages").Handler(
		web.Handler(MonitorMessagesV1)).Name("MonitorMessagesV1").Methods("GET")
}

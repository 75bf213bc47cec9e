// Package server wires the Dumbster services together.
package server

import (
	"context"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/luahost"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/msghub"
	"github.com/inbucket/dumbster/pkg/rest"
	"github.com/inbucket/dumbster/pkg/server/smtp"
	"github.com/inbucket/dumbster/pkg/server/web"
	"github.com/inbucket/dumbster/pkg/storage"
)

// Services holds the configured and started services.
type Services struct {
	ExtHost          *extension.Host
	LuaHost          *luahost.Host
	Manager          message.Manager
	MsgHub           *msghub.Hub
	RetentionScanner *storage.RetentionScanner
	SMTPServer       *smtp.Server
	WebServer        *web.Server
}

// Prod wires up the production Dumbster environment.  The SMTP listener is bound before Prod
// returns; the remaining services run until rootCtx is canceled.
func Prod(rootCtx context.Context, shutdownChan chan bool, conf *config.Root) (*Services, error) {
	extHost := extension.NewHost()

	// Load Lua script before storage, so it observes every event.
	luaHost, err := luahost.New(conf.Lua, extHost)
	if err != nil {
		return nil, err
	}

	// Configure storage.
	store, err := storage.FromConfig(conf.Storage, extHost)
	if err != nil {
		return nil, err
	}

	msgHub := msghub.New(conf.Web.MonitorHistory, extHost)
	go msgHub.Start(rootCtx)
	mmanager := &message.StoreManager{Store: store, ExtHost: extHost}

	// Start Retention scanner.
	retentionScanner := storage.NewRetentionScanner(conf.Storage, store, shutdownChan)
	retentionScanner.Start()

	// Configure routes and start HTTP server.
	webServer := web.NewServer(conf, shutdownChan, mmanager, msgHub)
	rest.SetupRoutes(webServer.Subrouter("/api/"))
	go webServer.Start(rootCtx)

	// Start SMTP server.
	smtpServer := smtp.NewServer(conf.SMTP, shutdownChan, smtp.ManagerDeliverer{Manager: mmanager})
	if err := smtpServer.Listen(); err != nil {
		return nil, err
	}
	go smtpServer.Serve(rootCtx)

	return &Services{
		ExtHost:          extHost,
		LuaHost:          luaHost,
		Manager:          mmanager,
		MsgHub:           msgHub,
		RetentionScanner: retentionScanner,
		SMTPServer:       smtpServer,
		WebServer:        webServer,
	}, nil
}

// Drain blocks until in-flight SMTP sessions and the retention scanner have stopped.  Call after
// the shutdown channel is closed.
func (s *Services) Drain() {
	s.SMTPServer.Drain()
	s.RetentionScanner.Join()
}

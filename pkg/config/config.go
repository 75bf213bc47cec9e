// Package config loads Dumbster settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	prefix      = "dumbster"
	tableFormat = `Dumbster is configured via the environment. The following environment
variables can be used:

KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`
)

var (
	// Version of this build, set by main
	Version = ""

	// BuildDate for this build, set by main
	BuildDate = ""
)

// Root wraps all other configurations.
type Root struct {
	LogLevel string `required:"true" default:"info" desc:"debug, info, warn, or error"`
	Lua      Lua
	SMTP     SMTP
	Web      Web
	Storage  Storage
}

// Lua contains the Lua extension host configuration.
type Lua struct {
	Path string `required:"false" default:"dumbster.lua" desc:"Lua script path"`
}

// SMTP contains the SMTP server configuration.
type SMTP struct {
	Addr    string        `required:"true" default:"0.0.0.0:2500" desc:"SMTP server IP4 host:port"`
	Domain  string        `required:"true" default:"localhost" desc:"Domain announced in greeting"`
	Timeout time.Duration `required:"true" default:"300s" desc:"Idle network timeout"`
	Debug   bool          `ignored:"true"`
}

// Web contains the HTTP server configuration.
type Web struct {
	Addr           string `required:"true" default:"0.0.0.0:9000" desc:"Web server IP4 host:port"`
	BasePath       string `desc:"Base path prefix for HTTP routes"`
	MonitorHistory int    `required:"true" default:"30" desc:"Monitor remembered messages"`
}

// Storage contains the received message store configuration.
type Storage struct {
	Type            string            `required:"true" default:"memory" desc:"Storage impl: memory"`
	Params          map[string]string `desc:"Storage impl parameters, see docs."`
	MessageCap      int               `required:"true" default:"500" desc:"Maximum stored messages"`
	RetentionPeriod time.Duration     `required:"true" default:"24h" desc:"Duration to retain messages"`
	RetentionSleep  time.Duration     `required:"true" default:"50ms" desc:"Duration to sleep between deletes"`
}

// Process reads the DUMBSTER_* environment variables into a Root and validates the result.
func Process() (*Root, error) {
	c := &Root{}
	if err := envconfig.Process(prefix, c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Root) validate() error {
	var errs []error
	if c.SMTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("SMTP_TIMEOUT must be positive, got %v", c.SMTP.Timeout))
	}
	if c.SMTP.Domain == "" {
		errs = append(errs, errors.New("SMTP_DOMAIN must not be empty"))
	}
	if c.Storage.MessageCap < 0 {
		errs = append(errs, fmt.Errorf("STORAGE_MESSAGECAP must not be negative, got %d",
			c.Storage.MessageCap))
	}
	if c.Storage.RetentionPeriod < 0 {
		errs = append(errs, fmt.Errorf("STORAGE_RETENTIONPERIOD must not be negative, got %v",
			c.Storage.RetentionPeriod))
	}
	if c.Web.MonitorHistory < 0 {
		errs = append(errs, fmt.Errorf("WEB_MONITORHISTORY must not be negative, got %d",
			c.Web.MonitorHistory))
	}
	return errors.Join(errs...)
}

// Usage writes a table of the supported environment variables to w.
func Usage(w io.Writer) error {
	tabs := tabwriter.NewWriter(w, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(prefix, &Root{}, tabs, tableFormat); err != nil {
		return err
	}
	return tabs.Flush()
}

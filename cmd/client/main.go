// Package main implements a command line client for the Dumbster REST API
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/inbucket/dumbster/pkg/rest/client"
)

var (
	host     = flag.String("host", "localhost", "host/IP of Dumbster server")
	port     = flag.Uint("port", 9000, "HTTP port of Dumbster server")
	basePath = flag.String("basepath", "", "base path of the Dumbster web server, if any")
	timeout  = flag.Duration("timeout", 30*time.Second, "timeout of each REST request")
)

func main() {
	subcommands.ImportantFlag("host")
	subcommands.ImportantFlag("port")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&listCmd{}, "messages")
	subcommands.Register(&showCmd{}, "messages")
	subcommands.Register(&purgeCmd{}, "messages")
	subcommands.Register(&matchCmd{}, "search")
	subcommands.Register(&mboxCmd{}, "search")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}

func baseURL() string {
	u := "http://" + net.JoinHostPort(*host, strconv.FormatUint(uint64(*port), 10))
	if p := strings.Trim(*basePath, "/"); p != "" {
		u += "/" + p
	}
	return u
}

// newClient builds a REST client from the global flags.
func newClient() (*client.Client, error) {
	return client.New(baseURL(), client.WithOptTimeout(*timeout))
}

func fatal(msg string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	return subcommands.ExitFailure
}

// restFailed reports a failed API call, naming the id when the server does not know it.
func restFailed(id string, err error) subcommands.ExitStatus {
	var se *client.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound && id != "" {
		fmt.Fprintf(os.Stderr, "No message with ID %q\n", id)
		return subcommands.ExitFailure
	}
	return fatal("REST call failed", err)
}

func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, msg)
	return subcommands.ExitUsageError
}

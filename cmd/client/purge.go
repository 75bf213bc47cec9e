package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

// purgeCmd deletes every message held by the server.
type purgeCmd struct{}

func (*purgeCmd) Name() string             { return "purge" }
func (*purgeCmd) Synopsis() string         { return "delete all received messages" }
func (*purgeCmd) Usage() string            { return "purge:\n\tdelete every message held by the server\n" }
func (*purgeCmd) SetFlags(_ *flag.FlagSet) {}

func (*purgeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	c, err := newClient()
	if err != nil {
		return fatal("Couldn't build client", err)
	}
	if err := c.PurgeMessages(ctx); err != nil {
		return restFailed("", err)
	}
	return subcommands.ExitSuccess
}

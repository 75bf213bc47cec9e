package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/inbucket/dumbster/pkg/rest/client"
)

const listDateFormat = "2006-01-02 15:04:05"

// listCmd prints one line per message held by the server, oldest first.
type listCmd struct {
	long bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list received messages" }
func (*listCmd) Usage() string {
	return "list [-l]:\n\tprint the ID of each received message\n"
}

func (l *listCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&l.long, "l", false, "also print received date, size, sender and subject")
}

func (l *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	c, err := newClient()
	if err != nil {
		return fatal("Couldn't build client", err)
	}
	headers, err := c.ListMessages(ctx)
	if err != nil {
		return restFailed("", err)
	}
	if err := printHeaders(os.Stdout, headers, l.long); err != nil {
		return fatal("Error", err)
	}
	return subcommands.ExitSuccess
}

func printHeaders(w io.Writer, headers []*client.MessageHeader, long bool) error {
	if !long {
		for _, h := range headers {
			if _, err := fmt.Fprintln(w, h.ID); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, h := range headers {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", h.ID, h.Date.Local().Format(listDateFormat), h.Size,
			h.From, h.Subject)
	}
	return tw.Flush()
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/inbucket/dumbster/pkg/rest/client"
)

// mboxCmd dumps every message held by the server as one mboxrd file.
type mboxCmd struct {
	delete bool
}

func (*mboxCmd) Name() string     { return "mbox" }
func (*mboxCmd) Synopsis() string { return "output all messages in mbox format" }
func (*mboxCmd) Usage() string {
	return "mbox [-delete]:\n\twrite all received messages to stdout in mboxrd format\n"
}

func (m *mboxCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&m.delete, "delete", false, "delete messages after output")
}

func (m *mboxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	c, err := newClient()
	if err != nil {
		return fatal("Couldn't build client", err)
	}
	headers, err := c.ListMessages(ctx)
	if err != nil {
		return restFailed("", err)
	}
	return emit(ctx, headers, writeMbox, m.delete)
}

// writeMbox fetches the source of each message and writes them to w in mboxrd format.
func writeMbox(ctx context.Context, w io.Writer, headers []*client.MessageHeader) error {
	bw := bufio.NewWriter(w)
	for _, h := range headers {
		source, err := h.GetSource(ctx)
		if err != nil {
			return fmt.Errorf("message %s source: %w", h.ID, err)
		}
		fmt.Fprintf(bw, "From %s %s\n", mboxSender(h.From), h.Date.UTC().Format(time.ANSIC))
		bw.WriteString(escapeFromLines(source.String()))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// mboxSender is the bare sender address for the separator line, which must not contain spaces.
func mboxSender(from string) string {
	if from == "" {
		return "MAILER-DAEMON"
	}
	return strings.ReplaceAll(bareAddress(from), " ", "")
}

// escapeFromLines adds a '>' to lines that, after any existing quoting, begin "From ".
func escapeFromLines(source string) string {
	var b strings.Builder
	b.Grow(len(source))
	for line := range strings.Lines(source) {
		if strings.HasPrefix(strings.TrimLeft(line, ">"), "From ") {
			b.WriteByte('>')
		}
		b.WriteString(line)
	}
	return b.String()
}

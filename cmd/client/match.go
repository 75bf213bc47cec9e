package main

import (
	"context"
	"flag"
	"io"
	"net/mail"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/google/subcommands"
	"github.com/inbucket/dumbster/pkg/rest/client"
)

// regexFlag is a flag.Value holding an optional regular expression.
type regexFlag struct {
	*regexp.Regexp
}

var _ flag.Value = &regexFlag{}

func (r *regexFlag) Defined() bool {
	return r.Regexp != nil
}

func (r *regexFlag) Set(pattern string) (err error) {
	r.Regexp = nil
	if pattern != "" {
		r.Regexp, err = regexp.Compile(pattern)
	}
	return err
}

func (r *regexFlag) String() string {
	if r.Regexp == nil {
		return ""
	}
	return r.Regexp.String()
}

// criteria selects messages; undefined criteria match everything.
type criteria struct {
	from    regexFlag
	subject regexFlag
	to      regexFlag
	maxAge  time.Duration
}

func (c *criteria) setFlags(f *flag.FlagSet) {
	f.Var(&c.from, "from", "From header matching regexp (address, not name)")
	f.Var(&c.subject, "subject", "Subject header matching regexp")
	f.Var(&c.to, "to", "To header matching regexp (must match 1+ to address)")
	f.DurationVar(&c.maxAge, "maxage", 0,
		"Matches must have been received in this time frame (ex: \"10s\", \"5m\")")
}

// matches reports whether header meets every defined criterion.
func (c *criteria) matches(header *client.MessageHeader) bool {
	if c.maxAge > 0 && time.Since(header.Date) > c.maxAge {
		return false
	}
	if c.subject.Defined() && !c.subject.MatchString(header.Subject) {
		return false
	}
	if c.from.Defined() && !c.from.MatchString(bareAddress(header.From)) {
		return false
	}
	if c.to.Defined() {
		for _, to := range header.To {
			if c.to.MatchString(bareAddress(to)) {
				return true
			}
		}
		return false
	}
	return true
}

// bareAddress strips the display name from addr when it parses.
func bareAddress(addr string) string {
	if a, err := mail.ParseAddress(addr); err == nil {
		return a.Address
	}
	return addr
}

// matchCmd outputs the messages meeting its criteria, exiting 1 when there are none.
type matchCmd struct {
	criteria
	output string
	delete bool
}

func (*matchCmd) Name() string     { return "match" }
func (*matchCmd) Synopsis() string { return "output messages matching criteria" }
func (*matchCmd) Usage() string {
	return `match [flags]:
	output messages matching all specified criteria
	exit status will be 1 if no matches were found, otherwise 0
`
}

func (m *matchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.output, "output", "id", "output format: id, json, or mbox")
	f.BoolVar(&m.delete, "delete", false, "delete matched messages after output")
	m.criteria.setFlags(f)
}

// headerWriter renders a set of messages to w.
type headerWriter func(ctx context.Context, w io.Writer, headers []*client.MessageHeader) error

var matchOutputs = map[string]headerWriter{
	"id": func(_ context.Context, w io.Writer, headers []*client.MessageHeader) error {
		return printHeaders(w, headers, false)
	},
	"json": func(_ context.Context, w io.Writer, headers []*client.MessageHeader) error {
		return writeJSON(w, headers)
	},
	"mbox": writeMbox,
}

func (m *matchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	write, ok := matchOutputs[m.output]
	if !ok {
		return usage("unknown output type: " + m.output)
	}
	c, err := newClient()
	if err != nil {
		return fatal("Couldn't build client", err)
	}
	headers, err := c.ListMessages(ctx)
	if err != nil {
		return restFailed("", err)
	}

	matched := slices.DeleteFunc(headers, func(h *client.MessageHeader) bool { return !m.matches(h) })
	if len(matched) == 0 {
		return subcommands.ExitFailure
	}
	return emit(ctx, matched, write, m.delete)
}

// emit writes headers to stdout, then deletes them from the server if del is set.
func emit(ctx context.Context, headers []*client.MessageHeader, write headerWriter,
	del bool) subcommands.ExitStatus {
	if err := write(ctx, os.Stdout, headers); err != nil {
		return fatal("Error", err)
	}
	if !del {
		return subcommands.ExitSuccess
	}
	for _, h := range headers {
		if err := h.Delete(ctx); err != nil {
			return restFailed(h.ID, err)
		}
	}
	return subcommands.ExitSuccess
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/inbucket/dumbster/pkg/rest/client"
)

type showCmd struct {
	output string
}

func (*showCmd) Name() string {
	return "show"
}

func (*showCmd) Synopsis() string {
	return "show a received message"
}

func (*showCmd) Usage() string {
	return `show [flags] <id>:
	output a single message
`
}

func (s *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.output, "output", "text", "output format: text, json, or source")
}

func (s *showCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	id := f.Arg(0)
	if id == "" {
		return usage("message id required")
	}

	c, err := newClient()
	if err != nil {
		return fatal("Couldn't build client", err)
	}

	switch s.output {
	case "source":
		source, err := c.GetMessageSource(ctx, id)
		if err != nil {
			return restFailed(id, err)
		}
		if _, err := source.WriteTo(os.Stdout); err != nil {
			return fatal("Error", err)
		}
	case "json", "text":
		msg, err := c.GetMessage(ctx, id)
		if err != nil {
			return restFailed(id, err)
		}
		if s.output == "json" {
			err = writeJSON(os.Stdout, msg)
		} else {
			outputText(msg)
		}
		if err != nil {
			return fatal("Error", err)
		}
	default:
		return usage("unknown output type: " + s.output)
	}

	return subcommands.ExitSuccess
}

func outputText(msg *client.Message) {
	fmt.Printf("ID:         %s\n", msg.ID)
	fmt.Printf("From:       %s\n", msg.From)
	fmt.Printf("To:         %s\n", strings.Join(msg.To, ", "))
	fmt.Printf("Recipients: %s\n", strings.Join(msg.Recipients, ", "))
	fmt.Printf("Date:       %s\n", msg.Date)
	fmt.Printf("Subject:    %s\n", msg.Subject)
	for _, a := range msg.Attachments {
		fmt.Printf("Attachment: %s (%s, %d bytes)\n", a.FileName, a.ContentType, a.Size)
	}
	if msg.Body != nil {
		fmt.Printf("\n%s\n", msg.Body.Text)
	}
}

// writeJSON writes v as indented JSON, leaving HTML characters unescaped.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/inbucket/dumbster/pkg/rest/client"
	"github.com/inbucket/dumbster/pkg/rest/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeFromLines(t *testing.T) {
	in := "Subject: x\r\n\r\nFrom here\r\n>From there\r\nnot From\r\n"
	want := "Subject: x\r\n\r\n>From here\r\n>>From there\r\nnot From\r\n"
	assert.Equal(t, want, escapeFromLines(in))
}

func TestMboxSender(t *testing.T) {
	assert.Equal(t, "a@b.org", mboxSender("Alice <a@b.org>"))
	assert.Equal(t, "MAILER-DAEMON", mboxSender(""))
	assert.Equal(t, "notanaddress", mboxSender("not an address"))
}

func TestMatchCriteria(t *testing.T) {
	header := &client.MessageHeader{
		JSONMessageHeaderV1: &model.JSONMessageHeaderV1{
			ID:      "1",
			From:    "Alice <alice@example.com>",
			To:      []string{"Bob <bob@example.com>", "carol@example.com"},
			Subject: "Weekly report",
			Date:    time.Now().Add(-time.Minute),
		},
	}

	m := &matchCmd{}
	assert.True(t, m.matches(header), "no criteria matches everything")

	require.NoError(t, m.subject.Set("^Weekly"))
	require.NoError(t, m.from.Set("^alice@"))
	require.NoError(t, m.to.Set("^carol@"))
	assert.True(t, m.matches(header))

	require.NoError(t, m.to.Set("^dave@"))
	assert.False(t, m.matches(header))

	require.NoError(t, m.to.Set(""))
	m.maxAge = time.Second
	assert.False(t, m.matches(header), "message older than maxage")
}

func TestRegexFlag(t *testing.T) {
	var r regexFlag
	assert.False(t, r.Defined())
	assert.Equal(t, "", r.String())

	require.NoError(t, r.Set("^a+"))
	assert.True(t, r.Defined())
	assert.Equal(t, "^a+", r.String())

	assert.Error(t, r.Set("("))
	assert.False(t, r.Defined(), "invalid pattern clears the flag")
}

func TestBaseURL(t *testing.T) {
	defer func(h string, p uint, b string) { *host, *port, *basePath = h, p, b }(*host, *port, *basePath)

	*host, *port, *basePath = "::1", 9001, ""
	assert.Equal(t, "http://[::1]:9001", baseURL())

	*host, *basePath = "mail.local", "/dumbster/"
	assert.Equal(t, "http://mail.local:9001/dumbster", baseURL())
}

func TestRestFailed(t *testing.T) {
	notFound := &client.StatusError{Method: "GET", URL: "http://x/api/v1/messages/9", Code: http.StatusNotFound}
	assert.Equal(t, subcommands.ExitFailure, restFailed("9", notFound))
	assert.Equal(t, subcommands.ExitFailure, restFailed("", notFound))
	assert.Equal(t, subcommands.ExitFailure, restFailed("9", errors.New("connection refused")))
}

func TestPrintHeaders(t *testing.T) {
	date := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	headers := []*client.MessageHeader{
		{JSONMessageHeaderV1: &model.JSONMessageHeaderV1{
			ID: "1", From: "<a@example.com>", Subject: "Hi", Size: 42, Date: date}},
		{JSONMessageHeaderV1: &model.JSONMessageHeaderV1{
			ID: "12", From: "<bob@example.com>", Subject: "Re: Hi", Size: 1024, Date: date}},
	}

	var short strings.Builder
	require.NoError(t, printHeaders(&short, headers, false))
	assert.Equal(t, "1\n12\n", short.String())

	var long strings.Builder
	require.NoError(t, printHeaders(&long, headers, true))
	assert.Equal(t,
		"1   2024-03-01 09:30:00  42    <a@example.com>    Hi\n"+
			"12  2024-03-01 09:30:00  1024  <bob@example.com>  Re: Hi\n",
		long.String())
}

func TestWriteMbox(t *testing.T) {
	sources := map[string]string{
		"1": "Subject: one\r\n\r\nFrom the desk of\r\n",
		"2": "Subject: two\r\n\r\nbody\r\n",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/messages", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": "1", "from": "Ann <ann@example.com>", "date": "2024-03-01T09:30:00Z"},
			{"id": "2", "from": "", "date": "2024-03-01T09:31:00Z"}
		]`))
	})
	mux.HandleFunc("GET /api/v1/messages/{id}/source", func(w http.ResponseWriter, r *http.Request) {
		src, ok := sources[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(src))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c, err := client.New(server.URL)
	require.NoError(t, err)
	headers, err := c.ListMessages(context.Background())
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, writeMbox(context.Background(), &out, headers))
	assert.Equal(t,
		"From ann@example.com Fri Mar  1 09:30:00 2024\n"+
			"Subject: one\r\n\r\n>From the desk of\r\n\n"+
			"From MAILER-DAEMON Fri Mar  1 09:31:00 2024\n"+
			"Subject: two\r\n\r\nbody\r\n\n",
		out.String())
}

package luahost

import (
	"net/mail"
	"testing"

	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInboundState(t *testing.T, msg *event.InboundMessage) func(script string) error {
	t.Helper()
	ls, _ := test.NewLuaState(t)
	registerInboundMessageType(ls)
	registerMailAddressType(ls)
	ls.SetGlobal("msg", wrapInboundMessage(ls, msg))
	return ls.DoString
}

func TestInboundMessageGetters(t *testing.T) {
	msg := &event.InboundMessage{
		From:       mail.Address{Name: "name1", Address: "addr1"},
		To:         []mail.Address{{Name: "name2", Address: "addr2"}, {Address: "addr3"}},
		Recipients: []string{"rcpt1@example.com", "rcpt2@example.com"},
		Subject:    "subj1",
		Size:       42,
	}
	script := `
		assert_eq(msg.from.name, "name1")
		assert_eq(msg.from.address, "addr1")
		assert_eq(#msg.to, 2)
		assert_eq(msg.to[1].name, "name2")
		assert_eq(msg.to[2].address, "addr3")
		assert_eq(msg.recipients, {"rcpt1@example.com", "rcpt2@example.com"})
		assert_eq(msg.subject, "subj1")
		assert_eq(msg.size, 42)
	`
	require.NoError(t, newInboundState(t, msg)(script))
}

func TestInboundMessageSetters(t *testing.T) {
	script := `
		msg.from = address.new("name1", "addr1")
		msg.to = { address.new("name2", "addr2") }
		msg.subject = "subj1"
	`

	got := &event.InboundMessage{}
	require.NoError(t, newInboundState(t, got)(script))

	assert.Equal(t, mail.Address{Name: "name1", Address: "addr1"}, got.From)
	assert.Equal(t, []mail.Address{{Name: "name2", Address: "addr2"}}, got.To)
	assert.Equal(t, "subj1", got.Subject)
}

func TestInboundMessageAddressByReference(t *testing.T) {
	got := &event.InboundMessage{To: []mail.Address{{Address: "a@example.com"}}}
	require.NoError(t, newInboundState(t, got)(`
		msg.from.name = "Changed"
		msg.to[1].address = "b@example.com"
	`))

	assert.Equal(t, "Changed", got.From.Name)
	assert.Equal(t, "b@example.com", got.To[0].Address)
}

func TestInboundMessageReadOnly(t *testing.T) {
	do := newInboundState(t, &event.InboundMessage{Size: 5})
	assert.Error(t, do(`msg.size = 10`))
	assert.Error(t, do(`msg.recipients = {}`))
	assert.Error(t, do(`msg.mailboxes = {}`))
}

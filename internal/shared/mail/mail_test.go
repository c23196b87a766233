package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutHostIsDisabled(t *testing.T) {
	s := New(Config{})
	_, err := s.Send(context.Background(), Message{To: []string{"a@example.com"}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildMessage(t *testing.T) {
	s := &SMTPSender{cfg: Config{Host: "smtp.example.com", From: "Apoio <apoio@example.org>"}}
	m, id, err := s.build(Message{
		To:      []string{"cliente@example.com"},
		Cc:      []string{"equipa@example.org"},
		Subject: "Pedido de agendamento",
		HTML:    "<table><tr><td>ok</td></tr></table>",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^<[0-9a-f-]{36}@example\.org>$`, id)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Subject: Pedido de agendamento")
	assert.Contains(t, out, "Message-ID: "+id)
	assert.Contains(t, out, "cliente@example.com")
	assert.Contains(t, out, "text/html")
}

func TestBuildRejectsBadInput(t *testing.T) {
	s := &SMTPSender{cfg: Config{Host: "smtp.example.com", From: "apoio@example.org"}}

	_, _, err := s.build(Message{})
	assert.Error(t, err)

	_, _, err = s.build(Message{To: []string{"not an address"}})
	assert.Error(t, err)

	s.cfg.From = ""
	_, _, err = s.build(Message{To: []string{"a@example.com"}})
	assert.Error(t, err)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.org", domainOf("Apoio <apoio@example.org>"))
	assert.Equal(t, "example.org", domainOf("apoio@example.org"))
	assert.Equal(t, "localhost", domainOf("apoio"))
}

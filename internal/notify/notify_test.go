package notify

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"givingreport/internal/config"
)

func TestSubject(t *testing.T) {
	require.Equal(t, "givingreport encountered errors", Subject("givingreport", true))
	require.Equal(t, "givingreport completed without errors", Subject("givingreport", false))
}

func TestBuildMessage(t *testing.T) {
	m := New(config.GmailSecrets{
		User:         "sender@example.com",
		Password:     "hunter2",
		NotifyTarget: "admin@example.com",
	}, "givingreport", zerolog.Nop())

	msg, err := m.buildMessage("ERROR something broke\n", true)
	require.NoError(t, err)
	require.Equal(t, []string{"givingreport encountered errors"}, msg.GetGenHeader(mail.HeaderSubject))
	require.Equal(t, []string{"<sender@example.com>"}, msg.GetAddrHeaderString(mail.HeaderFrom))
	require.Equal(t, []string{"<admin@example.com>"}, msg.GetAddrHeaderString(mail.HeaderTo))
}

func TestBuildMessageBadAddress(t *testing.T) {
	m := New(config.GmailSecrets{
		User:         "not an address",
		Password:     "hunter2",
		NotifyTarget: "admin@example.com",
	}, "givingreport", zerolog.Nop())

	_, err := m.buildMessage("", false)
	require.Error(t, err)
}

func TestSendDigestUnconfigured(t *testing.T) {
	m := New(config.GmailSecrets{}, "givingreport", zerolog.Nop())
	require.NoError(t, m.SendDigest("whatever", false))
}

package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	msgs []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	prefill := domain.Prefill{FirstName: "Ada", Email: "a@example.com"}

	t.Run("verification code", func(t *testing.T) {
		rec := &recordingSender{}
		n := &Notifier{Sender: rec, FundName: "Harbor Fund I"}

		require.NoError(t, n.SendVerificationCode(ctx, "a@example.com", "483920", 10*time.Minute))
		require.Len(t, rec.msgs, 1)
		msg := rec.msgs[0]
		require.Equal(t, "a@example.com", msg.To)
		require.Equal(t, "Your Harbor Fund I verification code", msg.Subject)
		require.Contains(t, msg.Body, "483920")
		require.Contains(t, msg.Body, "expires in 10 minutes")
	})

	t.Run("invite", func(t *testing.T) {
		rec := &recordingSender{}
		n := &Notifier{Sender: rec}
		exp := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
		entity := prefill
		entity.EntityName = "Analytical Engines LLC"

		link := "https://portal.example.com/create-account/abc"
		require.NoError(t, n.SendAccountInvite(ctx, "a@example.com", entity, link, exp))
		msg := rec.msgs[0]
		require.Equal(t, "Create your Harbor investor portal account", msg.Subject)
		require.Contains(t, msg.Body, "Hi Ada,")
		require.Contains(t, msg.Body, "for Analytical Engines LLC")
		require.Contains(t, msg.Body, link)
		require.Contains(t, msg.Body, "8 March 2026")
	})

	t.Run("account created", func(t *testing.T) {
		rec := &recordingSender{}
		n := &Notifier{Sender: rec}

		require.NoError(t, n.SendAccountCreated(ctx, "a@example.com", prefill))
		require.Contains(t, rec.msgs[0].Body, "Sign in with a@example.com")
		require.NotContains(t, rec.msgs[0].Body, " for ")
	})

	t.Run("sender errors propagate", func(t *testing.T) {
		boom := errors.New("relay down")
		n := &Notifier{Sender: &recordingSender{err: boom}}
		require.ErrorIs(t, n.SendVerificationCode(ctx, "a@example.com", "483920", time.Minute), boom)
	})
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := LogSender{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com", Subject: "hi", Body: "code 483920"}))
	require.Contains(t, buf.String(), `"to":"a@example.com"`)
	require.Contains(t, buf.String(), "483920")
}

func TestSMTPSender(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	s := NewSMTPSender("mail.example.com", 587, "user", "pass", "Harbor <noreply@harbor.example>")
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Welcome", Body: "line one\nline two"})
	require.NoError(t, err)
	require.Equal(t, "mail.example.com:587", gotAddr)
	require.NotNil(t, gotAuth)
	require.Equal(t, []string{"a@example.com"}, gotTo)
	require.Contains(t, gotMsg, "Subject: Welcome\r\n")
	require.Contains(t, gotMsg, "@harbor.example>\r\n")
	require.True(t, strings.HasSuffix(gotMsg, "line one\r\nline two"))

	t.Run("no auth without username", func(t *testing.T) {
		s := NewSMTPSender("localhost", 1025, "", "", "noreply@harbor.example")
		s.sendMail = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
			require.Nil(t, a)
			return errors.New("connection refused")
		}
		err := s.Send(context.Background(), Message{To: "a@example.com"})
		require.ErrorContains(t, err, "connection refused")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, s.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
	})
}

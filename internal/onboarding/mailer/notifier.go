package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"minutes": func(d time.Duration) int { return int(d.Minutes()) },
	"date":    func(t time.Time) string { return t.UTC().Format("2 January 2006") },
}).ParseFS(templateFS, "templates/*.tmpl"))

// Notifier renders the onboarding emails and hands them to a Sender.
type Notifier struct {
	Sender   Sender
	FundName string // optional, used in greetings and subjects
}

func (n *Notifier) SendVerificationCode(ctx context.Context, to, code string, expiresIn time.Duration) error {
	return n.send(ctx, to, "verification_code.tmpl", map[string]any{
		"Fund":      n.fundName(),
		"Code":      code,
		"ExpiresIn": expiresIn,
	})
}

func (n *Notifier) SendAccountInvite(
	ctx context.Context,
	to string,
	prefill domain.Prefill,
	link string,
	expiresAt time.Time,
) error {
	return n.send(ctx, to, "account_invite.tmpl", map[string]any{
		"Fund":      n.fundName(),
		"Prefill":   prefill,
		"Link":      link,
		"ExpiresAt": expiresAt,
	})
}

func (n *Notifier) SendAccountCreated(ctx context.Context, to string, prefill domain.Prefill) error {
	return n.send(ctx, to, "account_created.tmpl", map[string]any{
		"Fund":    n.fundName(),
		"Prefill": prefill,
	})
}

// send renders name. The first line of a template is the subject.
func (n *Notifier) send(ctx context.Context, to, name string, data map[string]any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	subject, body, _ := strings.Cut(buf.String(), "\n")
	return n.Sender.Send(ctx, Message{
		To:      to,
		Subject: strings.TrimSpace(strings.TrimPrefix(subject, "Subject:")),
		Body:    strings.TrimLeft(body, "\n"),
	})
}

func (n *Notifier) fundName() string {
	if n.FundName == "" {
		return "Harbor"
	}
	return n.FundName
}

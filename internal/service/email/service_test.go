package email_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kumpul/internal/config"
	"kumpul/internal/service/email"
)

type capturedEmail struct {
	from, to, subject, html string
}

type fakeSender struct {
	sent []capturedEmail
	err  error
}

func (f *fakeSender) Send(_ context.Context, from, to, subject, html string) error {
	f.sent = append(f.sent, capturedEmail{from, to, subject, html})
	return f.err
}

func TestService_RendersTemplates(t *testing.T) {
	cfg := &config.Config{FromEmail: "noreply@kumpul.test", Domain: "kumpul.test"}
	sender := &fakeSender{}
	svc := email.NewServiceWithSender(sender, cfg)
	ctx := context.Background()

	require.NoError(t, svc.SendEmailVerification(ctx, "ana@example.com", "Ana", "tok123"))
	require.NoError(t, svc.SendPasswordResetEmail(ctx, "ana@example.com", "Ana", "reset456"))
	require.NoError(t, svc.SendWelcomeEmail(ctx, "ana@example.com", "Ana"))

	require.Len(t, sender.sent, 3)
	assert.Equal(t, "Kumpul <noreply@kumpul.test>", sender.sent[0].from)
	assert.Equal(t, "ana@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].html, "https://kumpul.test/verify-email?token=tok123")
	assert.Contains(t, sender.sent[0].html, "Hi Ana")
	assert.Contains(t, sender.sent[1].html, "reset-password?token=reset456")
	assert.Contains(t, sender.sent[2].subject, "Welcome")
}

func TestService_PropagatesSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("rate limited")}
	svc := email.NewServiceWithSender(sender, &config.Config{})

	assert.Error(t, svc.SendWelcomeEmail(context.Background(), "a@b.c", "A"))
}

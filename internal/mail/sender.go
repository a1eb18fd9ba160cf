package mail

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/smtp"
	"sync"

	"github.com/jordan-wright/email"
	"golang.org/x/time/rate"
	"healthtrack.zzh.net/internal/config"
)

//go:embed "templates"
var templateFS embed.FS

// EmailSender sends templated emails over SMTP. SMTP settings can be swapped
// at runtime via Reload when the config file changes; sends are throttled with
// a token bucket so a burst of registrations cannot hammer the SMTP relay.
type EmailSender struct {
    mu      sync.RWMutex
    smtpCfg config.SMTPConfig

    limiter *rate.Limiter
}

// NewEmailSender returns an EmailSender for the given SMTP settings, allowing
// at most one send per second with a small burst.
func NewEmailSender(smtpCfg config.SMTPConfig) *EmailSender {
    return &EmailSender{
        smtpCfg: smtpCfg,
        limiter: rate.NewLimiter(rate.Limit(1), 5),
    }
}

// Reload replaces the SMTP settings. In-flight sends keep the settings they
// started with.
func (sender *EmailSender) Reload(smtpCfg config.SMTPConfig) {
    sender.mu.Lock()
    sender.smtpCfg = smtpCfg
    sender.mu.Unlock()
}

// Send sends an email whose subject and content are read from a template
// file, waiting on the send throttle first.
func (sender *EmailSender) Send(ctx context.Context, to, templateFile string, data any) error {
    err := sender.limiter.Wait(ctx)
    if err != nil {
        return err
    }

    sender.mu.RLock()
    cfg := sender.smtpCfg
    sender.mu.RUnlock()

    tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
    if err != nil {
        return err
    }

    subject := new(bytes.Buffer)
    err = tmpl.ExecuteTemplate(subject, "subject", data)
    if err != nil {
        return err
    }

    plainBody := new(bytes.Buffer)
    err = tmpl.ExecuteTemplate(plainBody, "plainBody", data)
    if err != nil {
        return err
    }

    htmlBody := new(bytes.Buffer)
    err = tmpl.ExecuteTemplate(htmlBody, "htmlBody", data)
    if err != nil {
        return err
    }

    e := email.NewEmail()
    e.From = cfg.Username // 553 Mail from must equal authorized user
    e.To = []string{to}
    e.Subject = subject.String()
    e.Text = plainBody.Bytes()
    e.HTML = htmlBody.Bytes()

    smtpAuth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.AuthAddress)
    return e.Send(cfg.ServerAddress, smtpAuth)
}

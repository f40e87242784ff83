package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"drop_harvester/internal/config"
	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
)

// EmailNotifier mails a fixed operator address. It is a single-recipient
// channel: Notify and Broadcast both land in the same inbox, with the
// account named in the subject.
type EmailNotifier struct {
	cfg config.EmailConfig
	bus *logbus.Bus
}

func NewEmailNotifier(cfg config.EmailConfig, bus *logbus.Bus) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, bus: bus}
}

func (n *EmailNotifier) Notify(ctx context.Context, acc *model.Account, message string) {
	subject := "drop harvester"
	if acc != nil {
		subject = fmt.Sprintf("drop harvester: %s", acc.Username)
	}
	n.send(ctx, subject, message)
}

func (n *EmailNotifier) Broadcast(ctx context.Context, _ bool, message string) {
	n.send(ctx, "drop harvester: run update", message)
}

func (n *EmailNotifier) send(ctx context.Context, subject, body string) {
	if err := ctx.Err(); err != nil {
		return
	}
	if err := n.deliver(subject, body); err != nil {
		if n.bus != nil {
			n.bus.Log("warn", "email send failed", map[string]any{"error": err.Error()})
		}
		return
	}
	if n.bus != nil {
		n.bus.Log("info", "email sent", map[string]any{"to": n.cfg.To})
	}
}

func (n *EmailNotifier) deliver(subject, body string) error {
	from := strings.TrimSpace(n.cfg.From)
	if _, err := mail.ParseAddress(from); err != nil {
		return errors.New("invalid from address")
	}
	host, port, useSSL, err := smtpConfigForAddress(from)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(from, "drop harvester"))
	msg.SetHeader("To", strings.TrimSpace(n.cfg.To))
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body+"\n\nsent "+time.Now().Format("2006-01-02 15:04:05"))

	d := gomail.NewDialer(host, port, from, strings.TrimSpace(n.cfg.AuthCode))
	d.SSL = useSSL
	return d.DialAndSend(msg)
}

// smtpConfigForAddress picks the submission endpoint from the sender's
// domain. Unknown domains fall back to the smtp. convention over SSL.
func smtpConfigForAddress(address string) (host string, port int, useSSL bool, err error) {
	parts := strings.Split(strings.TrimSpace(address), "@")
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", 0, false, errors.New("invalid email format")
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))

	switch {
	case domain == "gmail.com" || strings.HasSuffix(domain, ".gmail.com"):
		return "smtp.gmail.com", 587, false, nil
	case domain == "outlook.com" || strings.HasSuffix(domain, ".outlook.com") ||
		domain == "hotmail.com" || strings.HasSuffix(domain, ".hotmail.com") ||
		domain == "live.com" || strings.HasSuffix(domain, ".live.com"):
		return "smtp.office365.com", 587, false, nil
	case domain == "yahoo.com" || strings.HasSuffix(domain, ".yahoo.com"):
		return "smtp.mail.yahoo.com", 465, true, nil
	case domain == "qq.com" || strings.HasSuffix(domain, ".qq.com") || domain == "foxmail.com":
		return "smtp.qq.com", 465, true, nil
	case domain == "163.com" || domain == "126.com" || domain == "yeah.net":
		return "smtp.163.com", 465, true, nil
	default:
		return "smtp." + domain, 465, true, nil
	}
}

package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"drop_harvester/internal/config"
	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
	"drop_harvester/internal/store"
)

// SMSNotifier texts account owners through the Twilio messages API.
type SMSNotifier struct {
	client *resty.Client
	sid    string
	from   string
	store  store.Store
	bus    *logbus.Bus
}

func NewSMSNotifier(cfg config.SMSConfig, st store.Store, bus *logbus.Bus) *SMSNotifier {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout()).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetRetryCount(cfg.RetryCount).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= http.StatusInternalServerError
		})
	return &SMSNotifier{
		client: client,
		sid:    cfg.AccountSID,
		from:   cfg.From,
		store:  st,
		bus:    bus,
	}
}

func (n *SMSNotifier) Notify(ctx context.Context, acc *model.Account, message string) {
	if acc == nil || acc.Phone == "" {
		return
	}
	n.send(ctx, acc.Phone, acc.Username+" "+message)
}

func (n *SMSNotifier) Broadcast(ctx context.Context, adminOnly bool, message string) {
	if n.store == nil {
		return
	}
	accounts, err := n.store.List(ctx)
	if err != nil {
		n.logf("warn", "sms broadcast skipped", map[string]any{"error": err.Error()})
		return
	}
	for _, acc := range accounts {
		if adminOnly && !acc.Admin {
			continue
		}
		n.Notify(ctx, acc, message)
	}
}

func (n *SMSNotifier) send(ctx context.Context, to, body string) {
	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   to,
			"From": n.from,
			"Body": body,
		}).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", n.sid))
	if err != nil {
		n.logf("warn", "sms send failed", map[string]any{"to": to, "error": err.Error()})
		return
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		n.logf("warn", "sms rejected", map[string]any{
			"to":     to,
			"status": resp.StatusCode(),
			"body":   resp.String(),
		})
		return
	}
	n.logf("info", "sms sent", map[string]any{"to": to})
}

func (n *SMSNotifier) logf(level, msg string, fields map[string]any) {
	if n.bus != nil {
		n.bus.Log(level, msg, fields)
	}
}

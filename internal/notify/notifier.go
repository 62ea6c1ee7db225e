package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scm-analytics/internal/util"

	"go.uber.org/zap"
)

// DeliveryStatus is the outcome of a single notification attempt
type DeliveryStatus string

const (
	StatusSent          DeliveryStatus = "sent"
	StatusNotConfigured DeliveryStatus = "not_configured"
	StatusFailed        DeliveryStatus = "failed"
)

// DeliveryResult describes what happened to one message
type DeliveryResult struct {
	Status    DeliveryStatus
	Recipient string
	Detail    string
}

func (r DeliveryResult) String() string {
	return fmt.Sprintf("%s (%s): %s", r.Status, r.Recipient, r.Detail)
}

// Notifier delivers an alert message to a recipient. Implementations never
// return an error; failures are reported through the result.
type Notifier interface {
	Notify(ctx context.Context, recipient, message string) DeliveryResult
}

const placeholderAccountSID = "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

// SMSConfig holds the SMS provider credentials
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	Timeout    time.Duration
}

// Configured reports whether credentials look usable
func (c SMSConfig) Configured() bool {
	return c.AccountSID != "" && c.AccountSID != placeholderAccountSID &&
		c.AuthToken != "" && c.FromNumber != ""
}

// SMSNotifier sends messages through a Twilio compatible REST endpoint
type SMSNotifier struct {
	cfg    SMSConfig
	client *http.Client
	logger *zap.Logger
}

// NewSMSNotifier creates a new SMS notifier
func NewSMSNotifier(cfg SMSConfig) *SMSNotifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMSNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: util.GetLogger(),
	}
}

// Notify sends message to recipient
func (n *SMSNotifier) Notify(ctx context.Context, recipient, message string) DeliveryResult {
	ctx, span := util.StartSpan(ctx, "SMSNotifier.Notify")
	defer span.End()

	if !n.cfg.Configured() || recipient == "" {
		util.NotificationsTotal.WithLabelValues(string(StatusNotConfigured)).Inc()
		return DeliveryResult{
			Status:    StatusNotConfigured,
			Recipient: recipient,
			Detail:    "SMS API credentials not configured",
		}
	}

	form := url.Values{}
	form.Set("To", recipient)
	form.Set("From", n.cfg.FromNumber)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimRight(n.cfg.BaseURL, "/"), n.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return n.failed(recipient, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)

	resp, err := n.client.Do(req)
	if err != nil {
		util.RecordError(span, err)
		return n.failed(recipient, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return n.failed(recipient, fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	util.NotificationsTotal.WithLabelValues(string(StatusSent)).Inc()
	return DeliveryResult{
		Status:    StatusSent,
		Recipient: recipient,
		Detail:    "SMS sent successfully to " + recipient,
	}
}

func (n *SMSNotifier) failed(recipient string, err error) DeliveryResult {
	n.logger.Warn("SMS delivery failed",
		zap.String("recipient", recipient),
		zap.Error(err))
	util.NotificationsTotal.WithLabelValues(string(StatusFailed)).Inc()
	return DeliveryResult{Status: StatusFailed, Recipient: recipient, Detail: err.Error()}
}

// Disabled is the notifier used when no delivery channel exists
type Disabled struct{}

func (Disabled) Notify(_ context.Context, recipient, _ string) DeliveryResult {
	util.NotificationsTotal.WithLabelValues(string(StatusNotConfigured)).Inc()
	return DeliveryResult{Status: StatusNotConfigured, Recipient: recipient, Detail: "notifications disabled"}
}

// New returns an SMS notifier when cfg is usable and Disabled otherwise
func New(cfg SMSConfig) Notifier {
	if !cfg.Configured() {
		return Disabled{}
	}
	return NewSMSNotifier(cfg)
}

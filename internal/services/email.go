package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Email template types the engine sends. Rendering is owned by the email
// provider; the engine only supplies variables.
const (
	TemplateCommissionEarned   = "commission_earned"
	TemplateWithdrawalApproved = "withdrawal_approved"
	TemplateWithdrawalRejected = "withdrawal_rejected"
	TemplateWithdrawalPaid     = "withdrawal_paid"
)

// ResendConfig represents Resend email service configuration
type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// ResendNotifier sends templated email via the Resend API
type ResendNotifier struct {
	config ResendConfig
	client *http.Client
}

// NewResendNotifier creates a new Resend notifier
func NewResendNotifier(config ResendConfig) *ResendNotifier {
	return &ResendNotifier{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

var emailSubjects = map[string]string{
	TemplateCommissionEarned:   "You earned a commission",
	TemplateWithdrawalApproved: "Your withdrawal was approved",
	TemplateWithdrawalRejected: "Your withdrawal was rejected",
	TemplateWithdrawalPaid:     "Your withdrawal has been paid out",
}

var emailBodies = map[string]string{
	TemplateCommissionEarned:   "Hi %s, a subscription purchased with your promo code earned you $%s in commission.",
	TemplateWithdrawalApproved: "Hi %s, your withdrawal request for $%s was approved and will be paid out shortly.",
	TemplateWithdrawalRejected: "Hi %s, your withdrawal request for $%s was rejected: %s",
	TemplateWithdrawalPaid:     "Hi %s, your withdrawal of $%s has been paid out to your bank account.",
}

type resendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send delivers one templated email. Callers treat failures as log-only.
func (n *ResendNotifier) Send(template string, to string, vars map[string]string) error {
	subject, ok := emailSubjects[template]
	if !ok {
		return fmt.Errorf("unknown email template %q", template)
	}

	var text string
	switch template {
	case TemplateWithdrawalRejected:
		text = fmt.Sprintf(emailBodies[template], vars["name"], vars["amount"], vars["reason"])
	default:
		text = fmt.Sprintf(emailBodies[template], vars["name"], vars["amount"])
	}

	payload, err := json.Marshal(resendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", n.config.FromName, n.config.FromEmail),
		To:      []string{to},
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+n.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email send failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

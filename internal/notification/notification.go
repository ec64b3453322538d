package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Kind selects the email template
type Kind string

const (
	KindVerifyAccount       Kind = "verify_account"
	KindResetPassword       Kind = "reset_password"
	KindBookingConfirmation Kind = "booking_confirmation"
	KindPaymentSuccess      Kind = "payment_success"
)

// IsOrder reports whether the kind also notifies the shop's admins
func (k Kind) IsOrder() bool {
	return k == KindBookingConfirmation || k == KindPaymentSuccess
}

// Item is one destination line in an order email
type Item struct {
	Name      string
	VisitDate string
}

// Fields carries template data
type Fields struct {
	Subject       string
	Link          string
	CustomerName  string
	CustomerEmail string
	OrderCode     string
	Items         []Item
	TotalAmount   string
	AmountUSD     string
	Currency      string
	ExchangeRate  string
	PaymentMethod string
	// ShowUSD prints the USD equivalent next to the local total
	ShowUSD bool
}

// Message is a rendered email
type Message struct {
	Kind    Kind     `json:"kind"`
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func customerSubject(kind Kind, f Fields) string {
	switch kind {
	case KindBookingConfirmation:
		return "Your booking confirmation - " + f.OrderCode
	case KindPaymentSuccess:
		return "Payment successful - " + f.OrderCode
	}
	return f.Subject
}

func adminSubject(kind Kind, f Fields) string {
	switch kind {
	case KindBookingConfirmation:
		return "New booking received - " + f.OrderCode
	case KindPaymentSuccess:
		return "Payment status - " + f.OrderCode
	}
	return f.Subject
}

// render executes the customer template, or the admin variant when admin is set
func render(kind Kind, f Fields, admin bool) (string, error) {
	name := string(kind) + ".html"
	if admin {
		name = string(kind) + "_admin.html"
	}
	if templates.Lookup(name) == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, f); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

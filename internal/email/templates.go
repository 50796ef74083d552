package email

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

type templateData struct {
	Order          *domain.Order
	TrackingNumber string
	TrackingURL    string
}

var bodyTemplates = template.Must(template.New("emails").Parse(`
{{define "items"}}{{range .Order.Items}}  {{.Quantity}} x {{.ProductTitle}} ({{.VariantName}}) — {{.Price}} kr
{{end}}{{end}}

{{define "totals"}}Subtotal: {{.Order.Subtotal}} kr
Shipping: {{.Order.Shipping}} kr
Total: {{.Order.Total}} kr{{end}}

{{define "address"}}{{.Order.Address.FirstName}} {{.Order.Address.LastName}}
{{.Order.Address.Street}}
{{.Order.Address.PostalCode}} {{.Order.Address.City}}
{{.Order.Address.Country}}{{end}}

{{define "order_confirmation"}}Hi {{.Order.Address.FirstName}},

Thank you for your order {{.Order.OrderNumber}}!

{{template "items" .}}
{{template "totals" .}}

Shipping to:
{{template "address" .}}

We will let you know as soon as it ships.
{{end}}

{{define "order_shipped"}}Hi {{.Order.Address.FirstName}},

Good news — your order {{.Order.OrderNumber}} is on its way.

Tracking number: {{.TrackingNumber}}{{if .TrackingURL}}
Track your parcel: {{.TrackingURL}}{{end}}

{{template "items" .}}
{{end}}

{{define "order_delivered"}}Hi {{.Order.Address.FirstName}},

Your order {{.Order.OrderNumber}} has been delivered. We hope you love it!

If anything is not right, just reply to this email.
{{end}}

{{define "order_refunded"}}Hi {{.Order.Address.FirstName}},

Your order {{.Order.OrderNumber}} has been refunded.

{{template "totals" .}}

The amount should reach your account within a few business days.
{{end}}
`))

var subjects = map[domain.EmailType]string{
	domain.EmailOrderConfirmation: "Order %s confirmed",
	domain.EmailOrderShipped:      "Order %s has shipped",
	domain.EmailOrderDelivered:    "Order %s delivered",
	domain.EmailOrderRefunded:     "Order %s refunded",
}

// Render produces the subject and plain-text body for a lifecycle email.
// Tracking fields from the request take precedence over the ones stored on
// the order.
func Render(emailType domain.EmailType, order *domain.Order, trackingNumber, trackingURL string) (subject, body string, err error) {
	format, ok := subjects[emailType]
	if !ok {
		return "", "", fmt.Errorf("unknown email type %q", emailType)
	}

	data := templateData{
		Order:          order,
		TrackingNumber: trackingNumber,
		TrackingURL:    trackingURL,
	}
	if data.TrackingNumber == "" && order.TrackingNumber != nil {
		data.TrackingNumber = *order.TrackingNumber
	}
	if data.TrackingURL == "" && order.TrackingURL != nil {
		data.TrackingURL = *order.TrackingURL
	}

	var buf strings.Builder
	if err := bodyTemplates.ExecuteTemplate(&buf, string(emailType), data); err != nil {
		return "", "", err
	}

	return fmt.Sprintf(format, order.OrderNumber), strings.TrimSpace(buf.String()) + "\n", nil
}

package alerting

import (
	"time"

	"github.com/shopspring/decimal"
)

// WebhookPayload is the Discord-compatible body posted to the webhook.
type WebhookPayload struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

// Embed is the single detail block of a payload. Footer and Timestamp
// serialise as null when unset.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Footer      *EmbedFooter `json:"footer"`
	Timestamp   *string      `json:"timestamp"`
}

// EmbedField is a labelled value.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter labels the sender.
type EmbedFooter struct {
	Text string `json:"text"`
}

// ColorRed is the embed colour used for price drops.
const ColorRed = 0xFF0000

// MessageTemplate holds the fixed text of an alert.
type MessageTemplate struct {
	Content     string
	Title       string
	Description string
	Color       int
	Footer      string
	PricePrefix string
}

// DefaultTemplate returns the stock BTC price drop message.
func DefaultTemplate() MessageTemplate {
	return MessageTemplate{
		Content:     "@here ⚠️ BTC Price Alert",
		Title:       "Bitcoin Price Drop",
		Description: "The price of BTC has dropped below your threshold!",
		Color:       ColorRed,
		Footer:      "BTC Alert Bot",
		PricePrefix: "$",
	}
}

// Alert carries the values rendered into a notification.
type Alert struct {
	Threshold decimal.Decimal
	Price     decimal.Decimal
	At        time.Time
}

// BuildPayload renders alert with tmpl.
func BuildPayload(tmpl MessageTemplate, alert Alert) WebhookPayload {
	embed := Embed{
		Title:       tmpl.Title,
		Description: tmpl.Description,
		Color:       tmpl.Color,
		Fields: []EmbedField{
			{Name: "Current Price", Value: FormatPrice(tmpl.PricePrefix, alert.Price), Inline: true},
			{Name: "Threshold", Value: FormatPrice(tmpl.PricePrefix, alert.Threshold), Inline: true},
		},
	}
	if tmpl.Footer != "" {
		embed.Footer = &EmbedFooter{Text: tmpl.Footer}
	}
	if !alert.At.IsZero() {
		ts := alert.At.UTC().Format(time.RFC3339)
		embed.Timestamp = &ts
	}

	return WebhookPayload{
		Content: tmpl.Content,
		Embeds:  []Embed{embed},
	}
}

// FormatPrice renders v in its shortest decimal form behind prefix, e.g. $65000.
func FormatPrice(prefix string, v decimal.Decimal) string {
	return prefix + v.String()
}

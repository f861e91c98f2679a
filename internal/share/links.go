package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"salesaudit-backend/internal/analysis"
	"salesaudit-backend/internal/verification"
)

// Channel identifies an outbound share target.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelGmail Channel = "gmail"
)

// ErrUnknownChannel is returned for share targets this service does not
// support.
var ErrUnknownChannel = errors.New("share: unknown channel")

// ParseChannel validates a raw channel name.
func ParseChannel(raw string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "email":
		return ChannelEmail, nil
	case "gmail":
		return ChannelGmail, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, raw)
	}
}

// Link builds the prefilled compose URI for a channel. The audit summary is
// embedded in the message body so the recipient needs no account here.
func Link(ch Channel, r *analysis.Result, rec *verification.Record) (string, error) {
	subject := "Sales Data Audit Results"
	body := composeBody(r, rec)

	switch ch {
	case ChannelEmail:
		return "mailto:?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body), nil
	case ChannelGmail:
		return "https://mail.google.com/mail/?view=cm&fs=1&su=" + encodeComponent(subject) + "&body=" + encodeComponent(body), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}
}

func composeBody(r *analysis.Result, rec *verification.Record) string {
	var sb strings.Builder
	sb.WriteString("Please find below the sales data audit results:\n\n")

	outcome := "No anomalies detected"
	if r.HasAnomalies {
		outcome = fmt.Sprintf("%d anomalies detected", len(r.Anomalies))
	}
	sb.WriteString(fmt.Sprintf("Result: %s\n", outcome))
	sb.WriteString(fmt.Sprintf("Confidence: %d%%\n", r.Confidence))
	sb.WriteString(fmt.Sprintf("File: %s\n", r.SourceFileName))
	sb.WriteString(fmt.Sprintf("Total Records: %d\n", r.SummaryStats.TotalRecords))
	sb.WriteString(fmt.Sprintf("Total Amount: $%.2f\n", r.SummaryStats.TotalAmount))

	if rec != nil {
		sb.WriteString(fmt.Sprintf("\nVerify this report: %s\n", rec.TargetURL))
	}

	sb.WriteString("\nBest regards,\nSales Audit Team")
	return sb.String()
}

// encodeComponent escapes for use inside a URI query component, encoding
// spaces as %20 rather than +.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

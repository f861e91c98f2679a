package share

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"salesaudit-backend/internal/analysis"
	"salesaudit-backend/internal/verification"
)

func shareResult(anomalies int) *analysis.Result {
	r := &analysis.Result{
		Confidence:     95,
		SourceFileName: "sales.csv",
		SummaryStats: analysis.SummaryStats{
			TotalRecords: 3,
			TotalAmount:  600,
		},
	}
	for i := 0; i < anomalies; i++ {
		r.Anomalies = append(r.Anomalies, analysis.Anomaly{Description: "x", Severity: analysis.SeverityLow})
	}
	*r = analysis.Normalize(*r)
	return r
}

func TestParseChannel(t *testing.T) {
	if ch, err := ParseChannel(" Email "); err != nil || ch != ChannelEmail {
		t.Fatalf("got %v %v", ch, err)
	}
	if ch, err := ParseChannel("gmail"); err != nil || ch != ChannelGmail {
		t.Fatalf("got %v %v", ch, err)
	}
	if _, err := ParseChannel("slack"); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestLinkEmail(t *testing.T) {
	link, err := Link(ChannelEmail, shareResult(0), nil)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if !strings.HasPrefix(link, "mailto:?subject=") {
		t.Fatalf("unexpected prefix: %q", link)
	}
	if strings.Contains(link, "+") {
		t.Fatalf("spaces must encode as %%20, got %q", link)
	}

	bodyPart := link[strings.Index(link, "&body=")+len("&body="):]
	body, err := url.QueryUnescape(bodyPart)
	if err != nil {
		t.Fatalf("unescape body: %v", err)
	}
	if !strings.HasPrefix(body, "Please find below the sales data audit results:") {
		t.Fatalf("unexpected body start: %q", body)
	}
	if !strings.Contains(body, "Result: No anomalies detected") {
		t.Fatalf("body missing clean outcome: %q", body)
	}
	if !strings.HasSuffix(body, "Best regards,\nSales Audit Team") {
		t.Fatalf("unexpected body end: %q", body)
	}
}

func TestLinkGmail(t *testing.T) {
	rec := &verification.Record{
		VerificationID: "AB12CD34",
		TargetURL:      "https://sales-audit.example.com/check?id=AB12CD34&result=anomalies",
	}
	link, err := Link(ChannelGmail, shareResult(2), rec)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if !strings.HasPrefix(link, "https://mail.google.com/mail/?view=cm&fs=1&su=") {
		t.Fatalf("unexpected prefix: %q", link)
	}

	bodyPart := link[strings.Index(link, "&body=")+len("&body="):]
	body, err := url.QueryUnescape(bodyPart)
	if err != nil {
		t.Fatalf("unescape body: %v", err)
	}
	if !strings.Contains(body, "Result: 2 anomalies detected") {
		t.Fatalf("body missing anomaly count: %q", body)
	}
	if !strings.Contains(body, rec.TargetURL) {
		t.Fatalf("body missing verification url: %q", body)
	}
}

func TestEncodeComponent(t *testing.T) {
	got := encodeComponent("a b&c\nd")
	if got != "a%20b%26c%0Ad" {
		t.Fatalf("got %q", got)
	}
}

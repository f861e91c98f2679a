package verification

import (
	"bytes"
	"image/png"
	"regexp"
	"testing"

	"github.com/makiuchi-d/gozxing"
	qrreader "github.com/makiuchi-d/gozxing/qrcode"
)

var tokenPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func TestNewTokenShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		tok := NewToken()
		if !tokenPattern.MatchString(tok) {
			t.Fatalf("token %q does not match expected shape", tok)
		}
		seen[tok] = true
	}
	if len(seen) < 190 {
		t.Fatalf("tokens collide too often: %d unique of 200", len(seen))
	}
}

func TestTargetURL(t *testing.T) {
	s := &Service{BaseURL: "https://sales-audit.example.com"}

	got := s.TargetURL("AB12CD34", true)
	want := "https://sales-audit.example.com/check?id=AB12CD34&result=anomalies"
	if got != want {
		t.Fatalf("anomalies url: got %q want %q", got, want)
	}

	got = s.TargetURL("AB12CD34", false)
	want = "https://sales-audit.example.com/check?id=AB12CD34&result=clean"
	if got != want {
		t.Fatalf("clean url: got %q want %q", got, want)
	}
}

func TestTargetURLTrimsTrailingSlash(t *testing.T) {
	s := &Service{BaseURL: "https://sales-audit.example.com/"}
	got := s.TargetURL("ZZ99ZZ99", false)
	want := "https://sales-audit.example.com/check?id=ZZ99ZZ99&result=clean"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMintQRRoundTrip(t *testing.T) {
	s := &Service{BaseURL: "https://sales-audit.example.com"}

	rec, err := s.Mint(true)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !tokenPattern.MatchString(rec.VerificationID) {
		t.Fatalf("verification id %q malformed", rec.VerificationID)
	}
	if len(rec.QRImage) == 0 {
		t.Fatalf("expected a qr image")
	}

	img, err := png.Decode(bytes.NewReader(rec.QRImage))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != defaultQRSize || img.Bounds().Dy() != defaultQRSize {
		t.Fatalf("qr image is %dx%d, want %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), defaultQRSize, defaultQRSize)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		t.Fatalf("bitmap: %v", err)
	}
	decoded, err := qrreader.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		t.Fatalf("decode qr: %v", err)
	}
	if decoded.GetText() != rec.TargetURL {
		t.Fatalf("qr payload %q does not match target url %q", decoded.GetText(), rec.TargetURL)
	}
}

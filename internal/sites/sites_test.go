package sites

import (
	"errors"
	"testing"

	"github.com/user/listing-ingest/internal/domain"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want domain.ListingSite
		ok   bool
	}{
		{name: "avito www", url: "https://www.avito.ru/moskva/velosipedy/trek_2281037664", want: domain.SiteAvito, ok: true},
		{name: "avito mobile", url: "https://m.avito.ru/moskva/velosipedy/trek_2281037664", want: domain.SiteAvito, ok: true},
		{name: "avito bare", url: "https://avito.ru/item_123", want: domain.SiteAvito, ok: true},
		{name: "youla", url: "https://youla.ru/moskva/smartfony/item/5f3a", want: domain.SiteYoula, ok: true},
		{name: "youla io", url: "https://youla.io/p/123", want: domain.SiteYoula, ok: true},
		{name: "kufar", url: "https://www.kufar.by/item/123456789", want: domain.SiteKufar, ok: true},
		{name: "kufar regional", url: "https://re.kufar.by/vi/minsk/123", want: domain.SiteKufar, ok: true},
		{name: "lookalike host rejected", url: "https://avito.ru.phish.example/item_123", ok: false},
		{name: "unsupported marketplace", url: "https://www.ebay.com/itm/123", ok: false},
		{name: "no host", url: "not-a-url", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Detect(tc.url)
			if tc.ok {
				if err != nil {
					t.Fatalf("Detect(%q) error: %v", tc.url, err)
				}
				if p.Site != tc.want {
					t.Errorf("Detect(%q).Site = %q, want %q", tc.url, p.Site, tc.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("Detect(%q) = %+v, want error", tc.url, p)
			}
			var ude *domain.UnsupportedDomainError
			if !errors.As(err, &ude) {
				t.Fatalf("Detect(%q) error type = %T, want *UnsupportedDomainError", tc.url, err)
			}
			if len(ude.Supported) == 0 {
				t.Error("error should list supported domains")
			}
		})
	}
}

func TestAllowedImageHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{host: "10.img.avito.st", want: true},
		{host: "img.avito.st", want: true},
		{host: "cache3.youla.io", want: true},
		{host: "rms.kufar.by", want: true},
		{host: "YAMS.KUFAR.BY", want: true},
		{host: "evil.example", want: false},
		{host: "avito.st.evil.example", want: false},
	}
	for _, tc := range tests {
		if got := AllowedImageHost(tc.host); got != tc.want {
			t.Errorf("AllowedImageHost(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}

func TestProfileForImageURL(t *testing.T) {
	p, ok := ProfileForImageURL("https://10.img.avito.st/image/1/abc")
	if !ok {
		t.Fatal("expected a profile for an avito CDN URL")
	}
	if p.Site != domain.SiteAvito || p.PhotoReferer != "https://www.avito.ru/" {
		t.Errorf("unexpected profile: %+v", p)
	}
	if !p.RefererStrict {
		t.Error("avito CDN should be referer-strict")
	}

	if _, ok := ProfileForImageURL("https://cdn.example.com/x.jpg"); ok {
		t.Error("unknown CDN should not resolve to a profile")
	}
}

func TestBySite(t *testing.T) {
	for _, site := range []domain.ListingSite{domain.SiteAvito, domain.SiteYoula, domain.SiteKufar} {
		p, ok := BySite(site)
		if !ok || p.Site != site {
			t.Errorf("BySite(%q) = %+v, %v", site, p, ok)
		}
	}
	if _, ok := BySite(domain.SiteUnsupported); ok {
		t.Error("BySite should not resolve the unsupported sentinel")
	}
}

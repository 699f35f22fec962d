package extract

import (
	"testing"

	"github.com/user/listing-ingest/internal/domain"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
		ok   bool
	}{
		{name: "plain integer", raw: "55000", want: 55000, ok: true},
		{name: "space separated thousands", raw: "55 000", want: 55000, ok: true},
		{name: "nbsp separated thousands", raw: "1 234 567", want: 1234567, ok: true},
		{name: "comma thousands with decimal point", raw: "1,234.56", want: 1234.56, ok: true},
		{name: "comma as decimal separator", raw: "1234,56", want: 1234.56, ok: true},
		{name: "comma thousands only", raw: "12,345", want: 12345, ok: true},
		{name: "trailing dot", raw: "1500.", want: 1500, ok: true},
		{name: "zero rejected", raw: "0", ok: false},
		{name: "negative rejected", raw: "-5", ok: false},
		{name: "not a number", raw: "договорная", ok: false},
		{name: "empty", raw: "", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParsePrice(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestExtractTextAvito(t *testing.T) {
	body := `<html><head>
<meta property="og:description" content="Almost new, barely ridden">
</head><body>
<script>window.__initialData__ = {"item":{"title":"Trek Marlin 7","priceValue":"55 000","location":{"id":1,"name":"Москва"}}};</script>
</body></html>`

	res := ExtractText(domain.SiteAvito, "Avito", body)
	if res.Title != "Trek Marlin 7" {
		t.Errorf("Title = %q, want %q", res.Title, "Trek Marlin 7")
	}
	if res.Description != "Almost new, barely ridden" {
		t.Errorf("Description = %q", res.Description)
	}
	if res.Price == nil || *res.Price != 55000 {
		t.Errorf("Price = %v, want 55000", res.Price)
	}
	if res.Location != "Москва" {
		t.Errorf("Location = %q, want Москва", res.Location)
	}
}

func TestExtractTextKufarCurrency(t *testing.T) {
	body := `<html><body><h1>Горный велосипед</h1><span>1 500 р.</span><script>{"area":"Минск"}</script></body></html>`

	res := ExtractText(domain.SiteKufar, "Kufar", body)
	if res.Title != "Горный велосипед" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Price == nil || *res.Price != 1500 {
		t.Errorf("Price = %v, want 1500", res.Price)
	}
	if res.Location != "Минск" {
		t.Errorf("Location = %q, want Минск", res.Location)
	}
}

func TestExtractTextPlaceholders(t *testing.T) {
	res := ExtractText(domain.SiteAvito, "Avito", "<html><body></body></html>")
	if res.Title != "Avito Item" {
		t.Errorf("Title = %q, want placeholder", res.Title)
	}
	if res.Description != descriptionPlaceholder {
		t.Errorf("Description = %q, want placeholder", res.Description)
	}
	if res.Price != nil {
		t.Errorf("Price = %v, want nil", *res.Price)
	}
	if res.Location != "" {
		t.Errorf("Location = %q, want empty", res.Location)
	}
}

func TestDecodeMatchUnescapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "json unicode escape", in: `Trek \u0026 Co`, want: "Trek & Co"},
		{name: "html entity", in: "Trek &amp; Co", want: "Trek & Co"},
		{name: "plain text untouched", in: "Trek Marlin", want: "Trek Marlin"},
		{name: "escaped newline", in: `line one\nline two`, want: "line one\nline two"},
		{name: "escaped quotes", in: `Сумка \"Prada\"`, want: `Сумка "Prada"`},
		{name: "stray backslash kept raw", in: `C:\Users\photos`, want: `C:\Users\photos`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeMatch(tc.in); got != tc.want {
				t.Errorf("decodeMatch(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractTextTitleFromMarkup(t *testing.T) {
	body := `<html><head><title>iPhone 12 128GB — Youla</title></head><body></body></html>`
	res := ExtractText(domain.SiteYoula, "Youla", body)
	if res.Title != "iPhone 12 128GB" {
		t.Errorf("Title = %q, want trimmed page title", res.Title)
	}
}

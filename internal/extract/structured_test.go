package extract

import (
	"reflect"
	"testing"

	"github.com/user/listing-ingest/internal/domain"
)

func TestExtractStructuredJSONLD(t *testing.T) {
	body := `<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Product",
  "name": "Trek Marlin 7 2021",
  "description": "Hardtail mountain bike, size M",
  "image": [
    "https://10.img.avito.st/image/1/aaa",
    "https://10.img.avito.st/image/1/bbb"
  ],
  "offers": {"@type": "Offer", "price": "55000", "priceCurrency": "RUB"}
}
</script>
</head><body><h1>Something unrelated</h1></body></html>`

	res := ExtractStructured(domain.SiteAvito, body)
	if res == nil {
		t.Fatal("ExtractStructured returned nil for a JSON-LD product page")
	}
	if res.Title != "Trek Marlin 7 2021" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Description != "Hardtail mountain bike, size M" {
		t.Errorf("Description = %q", res.Description)
	}
	if res.Price == nil || *res.Price != 55000 {
		t.Errorf("Price = %v, want 55000", res.Price)
	}
	want := []string{"https://10.img.avito.st/image/1/aaa", "https://10.img.avito.st/image/1/bbb"}
	if !reflect.DeepEqual(res.PhotoURLs, want) {
		t.Errorf("PhotoURLs = %v, want %v", res.PhotoURLs, want)
	}
}

func TestExtractStructuredAppState(t *testing.T) {
	// Youla app state carries the price in kopecks.
	body := `<html><body>
<script>window.__YOULA_STATE__ = {"entities":{"product":{"title":"iPhone 12 128GB","price":3000000,"location":{"name":"Москва"},"images":[{"url":"https://cache3.youla.io/files/images/780_780_out/ab/cd.jpg"}]}}};</script>
</body></html>`

	res := ExtractStructured(domain.SiteYoula, body)
	if res == nil {
		t.Fatal("ExtractStructured returned nil for an app-state page")
	}
	if res.Title != "iPhone 12 128GB" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Price == nil || *res.Price != 30000 {
		t.Errorf("Price = %v, want 30000 rubles from a kopeck value", res.Price)
	}
	if res.Location != "Москва" {
		t.Errorf("Location = %q, want Москва", res.Location)
	}
	want := []string{"https://cache3.youla.io/files/images/780_780_out/ab/cd.jpg"}
	if !reflect.DeepEqual(res.PhotoURLs, want) {
		t.Errorf("PhotoURLs = %v, want %v", res.PhotoURLs, want)
	}
}

func TestExtractStructuredAbsent(t *testing.T) {
	bodies := []string{
		`<html><body><p>plain page</p></body></html>`,
		`<html><body><script>var x = 1;</script></body></html>`,
		// Marker present but no parseable assignment.
		`<html><body><script>if (window.__initialData__) { render(); }</script></body></html>`,
	}
	for _, body := range bodies {
		if res := ExtractStructured(domain.SiteAvito, body); res != nil {
			t.Errorf("ExtractStructured(%q) = %+v, want nil", body, res)
		}
	}
}

func TestExtractStructuredPriceDenomination(t *testing.T) {
	appState := func(price string) string {
		return `<html><body><script>window.__PRELOADED_STATE__ = {"item":{"title":"Диван","price":` +
			price + `,"images":["https://rms.kufar.by/v1/gallery/abc.jpg"]}};</script></body></html>`
	}
	tests := []struct {
		name  string
		site  domain.ListingSite
		price string
		want  float64
	}{
		{name: "youla numeric is kopecks", site: domain.SiteYoula, price: "1550000", want: 15500},
		{name: "avito numeric is rubles", site: domain.SiteAvito, price: "15500", want: 15500},
		{name: "youla string price is rubles", site: domain.SiteYoula, price: `"15 500"`, want: 15500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := ExtractStructured(tc.site, appState(tc.price))
			if res == nil {
				t.Fatal("ExtractStructured returned nil")
			}
			if res.Price == nil || *res.Price != tc.want {
				t.Errorf("Price = %v, want %v", res.Price, tc.want)
			}
		})
	}
}

func TestExtractStateBlob(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "object literal",
			script: `window.__initialData__ = {"a":{"b":1}};`,
			want:   `{"a":{"b":1}}`,
		},
		{
			name:   "braces inside strings",
			script: `window.__initialData__ = {"t":"a } b"};`,
			want:   `{"t":"a } b"}`,
		},
		{
			name:   "quoted url-encoded payload",
			script: `window.__initialData__ = "%7B%22title%22%3A%22X%22%7D";`,
			want:   `{"title":"X"}`,
		},
		{
			name:   "unterminated literal",
			script: `window.__initialData__ = {"a":1`,
			want:   "",
		},
		{
			name:   "no assignment",
			script: `if (window.__initialData__) {}`,
			want:   "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractStateBlob(tc.script, "__initialData__"); got != tc.want {
				t.Errorf("extractStateBlob = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestScanBalanced(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":1} trailing`, want: `{"a":1}`},
		{in: `[1,[2,3]] tail`, want: `[1,[2,3]]`},
		{in: `{"s":"\"}"}`, want: `{"s":"\"}"}`},
		{in: `{"a":1`, want: ""},
	}
	for _, tc := range tests {
		if got := scanBalanced(tc.in); got != tc.want {
			t.Errorf("scanBalanced(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// Package sites routes listing URLs to the marketplace they belong to and
// carries the per-site knowledge (photo CDNs, referers, display names) the
// rest of the pipeline keys off.
package sites

import (
	"net/url"
	"strings"

	"github.com/user/listing-ingest/internal/domain"
)

// Profile describes one supported marketplace.
type Profile struct {
	Site        domain.ListingSite
	DisplayName string

	// HostSuffixes match the listing page host (case-insensitive suffix).
	HostSuffixes []string

	// PhotoCDNHosts are host suffixes of the site's image CDN. Used for the
	// AI selector's domain allowlist and for the image proxy.
	PhotoCDNHosts []string

	// PhotoReferer is sent when downloading from the site's CDN.
	PhotoReferer string

	// RefererStrict marks CDNs that reject mismatched referers; downloads
	// from them get one retry with a cleaned URL and corrected referer.
	RefererStrict bool
}

var profiles = []Profile{
	{
		Site:          domain.SiteAvito,
		DisplayName:   "Avito",
		HostSuffixes:  []string{"avito.ru"},
		PhotoCDNHosts: []string{"img.avito.st", "avito.st"},
		PhotoReferer:  "https://www.avito.ru/",
		RefererStrict: true,
	},
	{
		Site:          domain.SiteYoula,
		DisplayName:   "Youla",
		HostSuffixes:  []string{"youla.ru", "youla.io"},
		PhotoCDNHosts: []string{"cache3.youla.io", "youla.io"},
		PhotoReferer:  "https://youla.ru/",
	},
	{
		Site:          domain.SiteKufar,
		DisplayName:   "Kufar",
		HostSuffixes:  []string{"kufar.by"},
		PhotoCDNHosts: []string{"rms.kufar.by", "yams.kufar.by", "kufar.by"},
		PhotoReferer:  "https://www.kufar.by/",
	},
}

// Detect classifies a listing URL against the supported marketplaces. It must
// run before any network fetch so unsupported hosts never cost a request.
func Detect(rawURL string) (Profile, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Profile{}, &domain.UnsupportedDomainError{Host: rawURL, Supported: SupportedDomains()}
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range profiles {
		for _, suffix := range p.HostSuffixes {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return p, nil
			}
		}
	}
	return Profile{}, &domain.UnsupportedDomainError{Host: host, Supported: SupportedDomains()}
}

// BySite returns the profile for a known site.
func BySite(site domain.ListingSite) (Profile, bool) {
	for _, p := range profiles {
		if p.Site == site {
			return p, true
		}
	}
	return Profile{}, false
}

// SupportedDomains lists the primary host of every supported marketplace.
func SupportedDomains() []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.HostSuffixes[0])
	}
	return out
}

// AllowedImageHost reports whether a host belongs to any supported photo CDN.
func AllowedImageHost(host string) bool {
	host = strings.ToLower(host)
	for _, p := range profiles {
		for _, cdn := range p.PhotoCDNHosts {
			if host == cdn || strings.HasSuffix(host, "."+cdn) {
				return true
			}
		}
	}
	return false
}

// ProfileForImageURL finds the marketplace whose CDN serves the given image
// URL, so downloads can carry the right referer.
func ProfileForImageURL(rawURL string) (Profile, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Profile{}, false
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range profiles {
		for _, cdn := range p.PhotoCDNHosts {
			if host == cdn || strings.HasSuffix(host, "."+cdn) {
				return p, true
			}
		}
	}
	return Profile{}, false
}

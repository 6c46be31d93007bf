package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ScrapePolicyConfig restricts which hosts the profile scraper may fetch.
// Disallow blocks matching hosts; a non-empty Allow list restricts scraping
// to the listed hosts and their subdomains. An empty policy permits
// everything.
type ScrapePolicyConfig struct {
	Allow    []string `mapstructure:"allow"`
	Disallow []string `mapstructure:"disallow"`
}

// Normalize cleans entries and removes duplicates.
func (c ScrapePolicyConfig) Normalize() ScrapePolicyConfig {
	norm := c
	norm.Allow = sanitizeHostList(norm.Allow)
	norm.Disallow = sanitizeHostList(norm.Disallow)
	return norm
}

// Validate ensures configured policy entries do not conflict.
func (c ScrapePolicyConfig) Validate() error {
	norm := c.Normalize()

	allow := make(map[string]struct{}, len(norm.Allow))
	for _, host := range norm.Allow {
		allow[host] = struct{}{}
	}
	for _, host := range norm.Disallow {
		if _, ok := allow[host]; ok {
			return fmt.Errorf("scrape policy conflict: host %q present in both allow and disallow lists", host)
		}
	}
	return nil
}

// Allows reports whether the URL's host may be scraped. Subdomains match
// their parent entries, so "linkedin.com" covers "de.linkedin.com". The
// policy must be normalized first. URLs without a resolvable host pass
// through; the fetcher records their failure.
func (c ScrapePolicyConfig) Allows(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, blocked := range c.Disallow {
		if hostMatches(host, blocked) {
			return false
		}
	}
	if len(c.Allow) == 0 {
		return true
	}
	for _, allowed := range c.Allow {
		if hostMatches(host, allowed) {
			return true
		}
	}
	return false
}

func hostMatches(host, pattern string) bool {
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

func sanitizeHostList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		host := normalizeHost(raw)
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		if u, err := url.Parse(value); err == nil && u.Hostname() != "" {
			return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		}
	}
	value = strings.TrimPrefix(value, "www.")
	return value
}

// Package domainutil normalizes raw website input into hostnames and
// registrable root domains, and decides whether a candidate host belongs
// to the same property as a scan target.
package domainutil

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// knownMultiLabelSuffixes is the fallback table used when the public suffix
// list cannot resolve a host. It covers the common two-label ccTLD suffixes;
// anything else keeps two trailing labels.
var knownMultiLabelSuffixes = map[string]struct{}{
	"co.uk":  {},
	"org.uk": {},
	"ac.uk":  {},
	"gov.uk": {},
	"co.in":  {},
	"net.in": {},
	"org.in": {},
	"com.au": {},
	"net.au": {},
	"org.au": {},
	"co.nz":  {},
	"co.jp":  {},
	"or.jp":  {},
	"ne.jp":  {},
	"com.br": {},
	"com.mx": {},
	"com.ar": {},
	"co.za":  {},
	"com.sg": {},
	"com.my": {},
	"com.cn": {},
	"com.tw": {},
	"com.hk": {},
	"co.kr":  {},
}

// Host normalizes arbitrary input (full URL, bare host, mixed case) into a
// lowercase hostname with the leading "www." stripped. Returns "" when no
// hostname can be extracted.
func Host(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	var host string
	if u, err := url.Parse(candidate); err == nil {
		host = u.Hostname()
	}
	if host == "" {
		// Parse failure: strip any scheme textually and take the segment
		// before the first slash.
		s := raw
		if i := strings.Index(s, "://"); i >= 0 {
			s = s[i+3:]
		}
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
		host = s
	}

	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, "www.")
	return strings.Trim(host, ".")
}

// Root returns the registrable domain (eTLD+1) for any input accepted by
// Host. The public suffix list is consulted first; when it cannot resolve
// the host, the known two-label ccTLD table decides whether to keep two or
// three trailing labels. Root is idempotent.
func Root(raw string) string {
	host := Host(raw)
	if host == "" {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}

	if root, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return root
	}

	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	if _, ok := knownMultiLabelSuffixes[lastTwo]; ok {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return lastTwo
}

// IsSelf reports whether a candidate host belongs to the same property as
// the target: exact host match, subdomain of the target root, shared root
// domain, or an "about.<brand>" host where <brand> is the first label of
// the target root. Used as a hard exclusion everywhere candidates are
// considered.
func IsSelf(candidate, target string) bool {
	ch := Host(candidate)
	th := Host(target)
	if ch == "" || th == "" {
		return false
	}
	if ch == th {
		return true
	}

	targetRoot := Root(th)
	if ch == targetRoot || strings.HasSuffix(ch, "."+targetRoot) {
		return true
	}
	if Root(ch) == targetRoot {
		return true
	}

	// Brand-prefixed property hosts like about.<brand>.
	brand, _, _ := strings.Cut(targetRoot, ".")
	if brand != "" {
		parts := strings.Split(ch, ".")
		if len(parts) >= 2 && parts[0] == "about" && parts[1] == brand {
			return true
		}
	}
	return false
}

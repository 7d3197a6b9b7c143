// Package extract turns raw page or snippet text into structural contact
// signals. It is pure pattern matching: no I/O, no external service, and no
// failure mode beyond an empty result.
package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/leadsmith/leadsmith/internal/lead"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	intlPhoneRe = regexp.MustCompile(`\+\d{1,3}[\s.\-]?\(?\d{1,4}\)?[\s.\-]?\d{2,4}[\s.\-]?\d{2,4}(?:[\s.\-]?\d{2,4})?`)
	nanpPhoneRe = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}`)

	urlInTextRe = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)

	timeOfDayRe = regexp.MustCompile(`(?i)\d{1,2}(:\d{2})?\s*(am|pm)|\d{1,2}:\d{2}`)

	personLineRe = regexp.MustCompile(`^[#*\-\s]*([A-Z][a-zA-Z'.]+(?: [A-Z][a-zA-Z'.]+){1,2})\s*[,\x{2013}\x{2014}:\-]\s+([A-Za-z][A-Za-z &/\-]{2,40})\s*$`)
)

// assetExts are file endings the email grammar accidentally matches in image
// srcsets and script bundles.
var assetExts = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
	".css", ".js", ".woff", ".mp4", ".pdf", ".zip",
}

// placeholderFragments mark template emails that are never a real contact.
var placeholderFragments = []string{
	"example.com", "yourdomain", "email@address", "sampleemail",
	"sentry", "wixpress", "@2x",
}

var hoursKeywords = []string{
	"hours", "open", "monday", "tuesday", "wednesday", "thursday",
	"friday", "saturday", "sunday", "mon-fri", "mon - fri", "weekdays",
}

var titleKeywords = []string{
	"owner", "founder", "co-founder", "ceo", "president", "director",
	"principal", "manager", "partner", "chief",
}

// socialHosts maps registrable domains to output platforms.
var socialHosts = map[string]string{
	"facebook.com":  lead.PlatformFacebook,
	"fb.com":        lead.PlatformFacebook,
	"twitter.com":   lead.PlatformTwitter,
	"x.com":         lead.PlatformTwitter,
	"linkedin.com":  lead.PlatformLinkedIn,
	"instagram.com": lead.PlatformInstagram,
	"youtube.com":   lead.PlatformYouTube,
	"youtu.be":      lead.PlatformYouTube,
	"tiktok.com":    lead.PlatformTikTok,
}

// messagingHosts are additional contact channels without a dedicated column.
var messagingHosts = map[string]string{
	"wa.me":            "whatsapp",
	"api.whatsapp.com": "whatsapp",
	"t.me":             "telegram",
	"m.me":             "messenger",
}

const maxHoursLen = 240

// Extract pulls contact signals from page text and harvested links. The
// sourcePage is recorded on person candidates for attribution.
func Extract(text string, links []string, sourcePage string) lead.ContactSignals {
	sig := lead.ContactSignals{}

	sig.Emails = extractEmails(text)
	sig.Phones = extractPhones(text)
	sig.Social, sig.Other = extractSocial(links, text)
	sig.Hours = extractHours(text)
	sig.People = extractPeople(text, sourcePage)

	return sig
}

func extractEmails(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range emailRe.FindAllString(text, -1) {
		low := strings.ToLower(m)
		if !plausibleEmail(low) {
			continue
		}
		if _, ok := seen[low]; ok {
			continue
		}
		seen[low] = struct{}{}
		out = append(out, m)
	}
	return out
}

func plausibleEmail(low string) bool {
	for _, ext := range assetExts {
		if strings.HasSuffix(low, ext) {
			return false
		}
	}
	for _, frag := range placeholderFragments {
		if strings.Contains(low, frag) {
			return false
		}
	}
	return true
}

func extractPhones(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(m string) {
		m = strings.TrimSpace(m)
		d := digits(m)
		if len(d) < 10 || len(d) > 15 {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		out = append(out, m)
	}
	for _, m := range intlPhoneRe.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range nanpPhoneRe.FindAllString(text, -1) {
		add(m)
	}
	return out
}

func extractSocial(links []string, text string) (map[string]string, []string) {
	social := map[string]string{}
	var other []string
	otherSeen := map[string]struct{}{}

	consider := func(raw string) {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		path := strings.ToLower(u.Path)

		if platform, ok := socialHosts[host]; ok {
			// Share widgets point at the platform, not at a profile.
			if strings.Contains(path, "/sharer") || strings.Contains(path, "/share") || strings.Contains(path, "/intent/") {
				return
			}
			if _, ok := social[platform]; !ok {
				social[platform] = raw
			}
			return
		}
		if channel, ok := messagingHosts[host]; ok {
			entry := channel + ": " + raw
			if _, ok := otherSeen[entry]; !ok {
				otherSeen[entry] = struct{}{}
				other = append(other, entry)
			}
		}
	}

	for _, l := range links {
		consider(l)
	}
	for _, m := range urlInTextRe.FindAllString(text, -1) {
		consider(strings.TrimRight(m, ".,;"))
	}
	return social, other
}

func extractHours(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		low := strings.ToLower(trimmed)
		if !containsAny(low, hoursKeywords) {
			continue
		}
		if !timeOfDayRe.MatchString(trimmed) && !strings.Contains(low, "closed") {
			continue
		}
		if len(trimmed) > maxHoursLen {
			cut := maxHoursLen
			for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
				cut--
			}
			trimmed = trimmed[:cut]
		}
		return trimmed
	}
	return ""
}

// extractPeople looks for "Name, Title" style lines where the title carries a
// leadership keyword, and attaches an email or phone found on the same or
// the following line.
func extractPeople(text string, sourcePage string) []lead.Person {
	lines := strings.Split(text, "\n")
	var people []lead.Person
	seen := map[string]struct{}{}

	for i, line := range lines {
		m := personLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name, title := m[1], strings.TrimSpace(m[2])
		if !containsAny(strings.ToLower(title), titleKeywords) {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		p := lead.Person{Name: name, Title: title, SourcePage: sourcePage}
		nearby := line
		if i+1 < len(lines) {
			nearby += "\n" + lines[i+1]
		}
		if emails := extractEmails(nearby); len(emails) > 0 {
			p.Email = emails[0]
		}
		if phones := extractPhones(nearby); len(phones) > 0 {
			p.Phone = phones[0]
		}
		people = append(people, p)
	}
	return people
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

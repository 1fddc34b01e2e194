package workers

import (
	"regexp"
	"sort"
	"strings"
)

// siteSignatures maps a window-title keyword to its canonical domain,
// seeded verbatim from the original implementation's browser detection
// table. Checked longest-signature-first to avoid partial matches (e.g.
// "YouTube Music" before "YouTube").
var siteSignatures = map[string]string{
	"Discord":         "discord.com",
	"YouTube Music":   "music.youtube.com",
	"YouTube":         "youtube.com",
	"IXL":             "ixl.com",
	"Google Search":   "google.com",
	"Google":          "google.com",
	"Gmail":           "mail.google.com",
	"Twitch":          "twitch.tv",
	"Reddit":          "reddit.com",
	"Twitter":         "twitter.com",
	"GitHub":          "github.com",
	"Netflix":         "netflix.com",
	"Amazon":          "amazon.com",
	"Wikipedia":       "wikipedia.org",
	"Stack Overflow":  "stackoverflow.com",
	"Coolmath Games":  "coolmathgames.com",
	"Poki":            "poki.com",
	"Roblox":          "roblox.com",
}

var signaturesByLengthDesc = func() []string {
	keys := make([]string, 0, len(siteSignatures))
	for k := range siteSignatures {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return keys
}()

// browserSuffixToID maps a window-title suffix to the browser identifier
// that produced it, matching BROWSER_SUFFIX_TO_ID in the original.
var browserSuffixToID = []struct {
	suffix string
	id     string
}{
	{" - Google Chrome", "chrome"},
	{" - Chromium", "chromium"},
	{" - Mozilla Firefox", "firefox"},
	{" - Firefox", "firefox"},
	{" - Brave", "brave"},
	{" - Microsoft Edge", "edge"},
}

var notificationPrefix = regexp.MustCompile(`^\(\d+\)\s*`)
var nonWordChars = regexp.MustCompile(`[^\w\s-]`)

// extractDomainFromTitle mirrors extract_domain_from_title: it returns the
// canonical domain (or an "unknown:<cleaned title>" discovery key) and the
// browser identifier, or ("", "") if the title doesn't belong to a browser.
func extractDomainFromTitle(title string) (domainName, browser string) {
	stripped := title
	for _, m := range browserSuffixToID {
		if strings.HasSuffix(stripped, m.suffix) {
			stripped = strings.TrimSuffix(stripped, m.suffix)
			browser = m.id
			break
		}
	}
	if browser == "" {
		return "", ""
	}

	stripped = notificationPrefix.ReplaceAllString(stripped, "")

	for _, sig := range signaturesByLengthDesc {
		if strings.Contains(stripped, sig) {
			return siteSignatures[sig], browser
		}
	}

	if idx := strings.LastIndex(stripped, " | "); idx >= 0 {
		siteName := strings.TrimSpace(stripped[idx+3:])
		if d, ok := siteSignatures[siteName]; ok {
			return d, browser
		}
	}

	cleaned := nonWordChars.ReplaceAllString(stripped, "")
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > 50 {
		cleaned = cleaned[:50]
	}
	if cleaned != "" {
		return "unknown:" + cleaned, browser
	}
	return "", browser
}

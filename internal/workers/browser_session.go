package workers

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
)

// sessionRecoveryDomains reads a browser's plain-JSON session/recovery file
// and returns the registrable domains of every open tab it lists. An
// LZ4-compressed recovery file (Firefox's default sessionstore-backups
// naming) is detected by its magic header and skipped rather than decoded —
// this daemon does not carry an LZ4 dependency solely for that fallback
// path (see DESIGN.md).
func sessionRecoveryDomains(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if bytes.HasPrefix(data, []byte("mozLz40\x00")) {
		return nil
	}
	if !json.Valid(data) {
		return nil
	}

	var urls []string
	collectSessionURLs(data, &urls)

	seen := map[string]bool{}
	var domains []string
	for _, raw := range urls {
		d, err := registrableDomain(raw)
		if err != nil || d == "" || seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}
	return domains
}

// collectSessionURLs walks a generic decoded JSON document looking for
// string values under any "url" key, tolerating both Chrome's and
// Firefox's differing recovery-file shapes without a shape-specific struct.
func collectSessionURLs(data []byte, out *[]string) {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return
	}
	walkForURLs(generic, out)
}

func walkForURLs(node any, out *[]string) {
	switch v := node.(type) {
	case map[string]any:
		for k, val := range v {
			if k == "url" {
				if s, ok := val.(string); ok {
					*out = append(*out, s)
				}
			}
			walkForURLs(val, out)
		}
	case []any:
		for _, item := range v {
			walkForURLs(item, out)
		}
	}
}

func chromeRecoveryPaths(homeDir string) []string {
	matches, _ := filepath.Glob(filepath.Join(homeDir, ".config", "google-chrome", "Default", "Sessions", "*.snss"))
	return matches
}

func firefoxRecoveryPath(homeDir, profile string) string {
	return filepath.Join(homeDir, ".mozilla", "firefox", profile, "sessionstore-backups", "recovery.jsonlz4")
}

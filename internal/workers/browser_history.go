package workers

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/publicsuffix"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"
)

var _ = sqlcipher.ErrBusy

// historyProfile locates a browser's history database and the SQL used to
// pull the most recently visited URL for a given title fragment.
type historyProfile struct {
	dbPath string
	query  string
}

func chromeHistoryProfile(homeDir string) historyProfile {
	return historyProfile{
		dbPath: filepath.Join(homeDir, ".config", "google-chrome", "Default", "History"),
		query:  `SELECT url FROM urls WHERE title LIKE ? ORDER BY last_visit_time DESC LIMIT 1`,
	}
}

func firefoxHistoryProfile(homeDir, profile string) historyProfile {
	return historyProfile{
		dbPath: filepath.Join(homeDir, ".mozilla", "firefox", profile, "places.sqlite"),
		query:  `SELECT url FROM moz_places WHERE title LIKE ? ORDER BY last_visit_date DESC LIMIT 1`,
	}
}

// lookupDomainInHistory copies the (possibly locked-by-the-live-browser)
// history database to a temp file and queries it for the last-visited URL
// matching titleFragment, then reduces that URL to a registrable domain.
// The sqlcipher driver is reused unkeyed since it transparently opens plain
// SQLite files when no pragma key is supplied.
func lookupDomainInHistory(ctx context.Context, prof historyProfile, titleFragment string) (string, error) {
	tmp, err := copyToTemp(prof.dbPath)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	db, err := sql.Open("sqlite3", tmp)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var rawURL string
	err = db.QueryRowContext(ctx, prof.query, "%"+titleFragment+"%").Scan(&rawURL)
	if err != nil {
		return "", err
	}

	return registrableDomain(rawURL)
}

func copyToTemp(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "playtimed-history-*.sqlite")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func registrableDomain(rawURL string) (string, error) {
	host, err := hostFromURL(rawURL)
	if err != nil {
		return "", err
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, nil
	}
	return etld1, nil
}

// DefaultFirefoxProfile reads profiles.ini for the profile marked
// Default=1, falling back to the first [ProfileN] section's Path. No ini
// library is warranted for this one well-known two-key lookup, so it is
// parsed with stdlib bufio/strings.
func DefaultFirefoxProfile(homeDir string) string {
	f, err := os.Open(filepath.Join(homeDir, ".mozilla", "firefox", "profiles.ini"))
	if err != nil {
		return ""
	}
	defer f.Close()

	var currentPath, fallback string
	isDefault := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "[Profile"):
			if isDefault && currentPath != "" {
				return currentPath
			}
			if fallback == "" {
				fallback = currentPath
			}
			currentPath, isDefault = "", false
		case strings.HasPrefix(line, "Path="):
			currentPath = strings.TrimPrefix(line, "Path=")
		case strings.HasPrefix(line, "Default="):
			isDefault = strings.TrimPrefix(line, "Default=") == "1"
		}
	}
	if isDefault && currentPath != "" {
		return currentPath
	}
	if fallback != "" {
		return fallback
	}
	return currentPath
}

func hostFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in url %q", rawURL)
	}
	return u.Hostname(), nil
}

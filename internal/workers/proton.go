package workers

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aaronsb/playtimed/internal/domain"
)

// protonParentMarkers identify a Wine/Proton launcher process in a
// cmdline, grounded on the original's Proton special-casing in
// _find_gaming_processes: a bare "wine64"/"wineserver" binary name, or any
// cmdline mentioning a Steam Proton runtime path.
var protonParentMarkers = regexp.MustCompile(`wine64|wineserver|steamapps/common/Proton`)

var windowsExeName = regexp.MustCompile(`(?i)([A-Za-z0-9_\-. ]+\.exe)`)

// protonGameKey extracts the actual game executable's basename from a
// Wine/Proton process's command line so distinct games classify
// separately instead of collapsing into a single "Proton Game" pattern.
func protonGameKey(h domain.ProcessHandle) (string, bool) {
	cmdline := strings.Join(h.Cmdline, " ")
	if !protonParentMarkers.MatchString(cmdline) && !protonParentMarkers.MatchString(h.Name) {
		return "", false
	}

	for _, arg := range h.Cmdline {
		if strings.HasSuffix(strings.ToLower(arg), ".exe") {
			return filepath.Base(arg), true
		}
	}
	if m := windowsExeName.FindString(cmdline); m != "" {
		return filepath.Base(m), true
	}
	return "", false
}

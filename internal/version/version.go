// Package version parses and compares the daemon's own build version,
// surfaced by the version subcommand, and offers SchemaCompatible for
// comparing a schema-migration version row against this build. Nothing in
// the daemon calls SchemaCompatible.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Build-time values, set via -ldflags.
var (
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

// Parsed returns the build Version as a semver.Version, falling back to
// 0.0.0 if the ldflags value is somehow not valid semver.
func Parsed() *semver.Version {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return semver.MustParse("0.0.0")
	}
	return v
}

// SupportedSchemaVersion is the highest meta.schema_version this build's
// migrations understand. The store's schema_version is a plain integer
// counter (see internal/store/migrate.go), not a semver string; semver is
// reserved for comparing this binary's own Version across upgrades (e.g. a
// future peer-daemon handshake), so schema compatibility is a direct
// integer comparison rather than a semver one.
const SupportedSchemaVersion = 2

// SchemaCompatible reports whether this build's migrations can run against
// a database already at dbSchemaVersion.
func SchemaCompatible(dbSchemaVersion int) bool {
	return dbSchemaVersion <= SupportedSchemaVersion
}

// NewerThan reports whether this build's Version is newer than other,
// using semver ordering.
func NewerThan(other string) (bool, error) {
	ov, err := semver.NewVersion(other)
	if err != nil {
		return false, fmt.Errorf("parse version %q: %w", other, err)
	}
	return Parsed().GreaterThan(ov), nil
}

func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)
}

// Package version carries build identification stamped at link time.
package version

// Set via -ldflags "-X .../internal/version.Version=v2.0.1 -X .../internal/version.Commit=abc1234".
var (
	Version = "dev"
	Commit  = ""
)

// SchemaVersion is the linguistic annotation schema generation this build
// emits. Superseded historical pipeline variants are not carried forward.
const SchemaVersion = "2.0"

// String returns the version tag written into every output record.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + "-" + Commit
}

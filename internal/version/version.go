// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/bnema/slotwatch/internal/version.Version=v0.3.0" ./cmd/slotwatch
package version

var (
	Version = "dev"
	Commit  = "none"
)

// String is the one-line form printed by `slotwatch version`.
func String() string {
	if Commit == "" || Commit == "none" {
		return Version
	}

	return Version + " (" + Commit + ")"
}

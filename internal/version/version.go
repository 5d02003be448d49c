// Package version provides build information for BlindEngine.
package version

// Version is the current release version. Override at build time with:
//
//	go build -ldflags "-X github.com/AaronLay10/BlindEngine/internal/version.Version=x.y.z"
var Version = "0.3.0"

// Protocol names the verification protocol implemented by this build.
const Protocol = "fk12-trappified"

// Package version provides build and version information for Sentient Player.
package version

// Version is the current release version of Sentient Player.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/SentientPlayer/internal/version.Version=x.y.z"
var Version = "0.3.0"

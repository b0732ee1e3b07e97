// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/loresync/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/yndnr/loresync/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// GoVersion and, when ldflags are absent, Commit fall back to the values
// recorded by the Go toolchain in the binary.
package buildinfo

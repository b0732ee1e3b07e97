// Command loresync-server hosts a propagation coordinator seeded from
// configuration and serves its read-only inspection API, health check
// and Prometheus metrics.
//
// Usage:
//
//	loresync-server -config /etc/loresync/server.yaml
//
// Settings come from the YAML file, then LORESYNC_* environment
// variables (LORESYNC_HTTP_ADDR overrides http.addr). Editing the file
// while the server runs re-applies log.level.
package main

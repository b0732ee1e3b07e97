// Package httpserver runs the loresync inspection server: health,
// Prometheus metrics and the read-only /v1 API from package handler,
// behind request-id, access-log and panic-recovery middleware.
package httpserver

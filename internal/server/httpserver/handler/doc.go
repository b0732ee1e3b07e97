// Package handler serves the read-only inspection API of loresync-server.
//
// Every JSON body uses the Response envelope. Routes:
//
//	GET /healthz
//	GET /v1/stats
//	GET /v1/subsystems
//	GET /v1/subsystems/{id}
//	GET /v1/subsystems/{id}/validate
//	GET /v1/operations[?source=id]
//	GET /v1/operations/{id}
package handler

// Package connection talks to a loresync-server inspection API over
// HTTP and unwraps its response envelope.
package connection

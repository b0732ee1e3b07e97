package domain

import "context"

// Hook is a caller-supplied callback. Change, success and error hooks
// only report failure through the error; validation hooks additionally
// return their verdict in the bool.
type Hook interface {
	Invoke(ctx context.Context, payload Payload) (bool, error)
}

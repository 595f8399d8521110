package server

import "context"

// Server is a transport-agnostic server that can be started and stopped
// through fx lifecycle hooks.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Addr() string
}

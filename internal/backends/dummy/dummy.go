// Package dummy is a backend that finishes every record successfully
// without any network I/O. Useful for debugging the pipeline and for
// exercising the full run path in tests.
package dummy

import (
	"context"

	"github.com/yoleg/proxytest/internal/backend"
	"github.com/yoleg/proxytest/internal/request"
)

// Name is the backend's registry name.
const Name = "dummy"

// Register adds the backend to the registry. It doubles as the plugin load
// function.
func Register(reg *backend.Registry) error {
	return reg.Register(Name, backend.Func(Process))
}

// Process marks every record as succeeded, one at a time.
func Process(_ context.Context, session *request.Session) error {
	for _, rec := range session.Records {
		rec.Start()
		rec.Succeed("", 0)
	}
	return nil
}

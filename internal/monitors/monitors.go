// Package monitors probes the services the relay depends on.
package monitors

import "context"

type Check interface {
	Name() string
	Check(ctx context.Context) error
}

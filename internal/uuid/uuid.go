// Package uuid wraps UUID generation so the rest of the codebase does not
// depend on a specific provider.
package uuid

import "github.com/google/uuid"

// New returns a random (v4) UUID string.
func New() string {
	return uuid.NewString()
}

package model

import (
	"fmt"
	"strings"
)

// LockfileKey is the namespaced string "<scope>:<path>" used to index
// Lockfile entries. path always uses forward slashes and uses "~" for
// paths under the user's home, so keys stay stable across machines for
// the same logical deploy.
type LockfileKey string

// NewLockfileKey builds a LockfileKey from a scope and a SafePath.
func NewLockfileKey(scope Scope, p SafePath) LockfileKey {
	return LockfileKey(fmt.Sprintf("%s:%s", scope, p.String()))
}

// Scope returns the scope portion of the key.
func (k LockfileKey) Scope() Scope {
	s, _, ok := strings.Cut(string(k), ":")
	if !ok {
		return ""
	}
	return Scope(s)
}

// Path returns the path portion of the key.
func (k LockfileKey) Path() string {
	_, p, ok := strings.Cut(string(k), ":")
	if !ok {
		return ""
	}
	return p
}

// HasScopePrefix reports whether the key belongs to the given scope,
// used by OrphanDetector to stay scope-isolated.
func (k LockfileKey) HasScopePrefix(scope Scope) bool {
	return strings.HasPrefix(string(k), string(scope)+":")
}

// String implements fmt.Stringer.
func (k LockfileKey) String() string {
	return string(k)
}

//go:build tools

// Package tools pins the code generators used by go generate so their
// versions are tracked in go.mod.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)

package codegen

import (
	"bytes"
	"fmt"

	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/ir"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate takes an IR program and a configuration, and produces the target
	// assembly as a byte buffer.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
	// GenerateIR returns the backend's intermediate form for --dump-ir.
	GenerateIR(prog *ir.Program, cfg *config.Config) (string, error)
}

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	switch name {
	case "amd64":
		return NewAMD64Backend(), nil
	case "qbe":
		return NewQBEBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported backend '%s'", name)
	}
}

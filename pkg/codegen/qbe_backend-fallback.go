//go:build windows

package codegen

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/ir"
)

// libqbe does not build on windows; shell out to a qbe binary instead.
func (b *qbeBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	qbePath, err := exec.LookPath("qbe")
	if err != nil {
		return nil, fmt.Errorf("qbe not found in PATH: %w", err)
	}

	qbeIR, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}

	inputFile, err := os.CreateTemp("", "ninecc-qbe-*.ssa")
	if err != nil {
		return nil, err
	}
	defer os.Remove(inputFile.Name())
	if _, err := inputFile.WriteString(qbeIR); err != nil {
		inputFile.Close()
		return nil, err
	}
	if err := inputFile.Close(); err != nil {
		return nil, err
	}

	var asmBuf, stderr bytes.Buffer
	cmd := exec.Command(qbePath, "-t", cfg.BackendTarget, inputFile.Name())
	cmd.Stdout = &asmBuf
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("qbe compilation failed for target %s: %w: %s\ngenerated IR:\n%s", cfg.BackendTarget, err, bytes.TrimSpace(stderr.Bytes()), qbeIR)
	}
	return &asmBuf, nil
}

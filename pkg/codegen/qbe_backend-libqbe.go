//go:build !windows

package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/ir"
	"modernc.org/libqbe"
)

func (b *qbeBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	qbeIR, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}

	var asmBuf bytes.Buffer
	if err := libqbe.Main(cfg.BackendTarget, "input.ssa", strings.NewReader(qbeIR), &asmBuf, nil); err != nil {
		return nil, fmt.Errorf("qbe compilation failed for target %s: %w\ngenerated IR:\n%s", cfg.BackendTarget, err, qbeIR)
	}
	return &asmBuf, nil
}

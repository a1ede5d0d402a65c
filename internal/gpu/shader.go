package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/instanced.wgsl
var instancedShaderSource string

// InstancedShaderSource returns the WGSL source of the instanced mesh
// shader. Entry points are vs_main and fs_main.
func InstancedShaderSource() string {
	return instancedShaderSource
}

// ValidateShader compiles the WGSL source to SPIR-V with naga and reports
// the first error. Backends compile the module again on their own; this
// only catches source errors early with a readable message.
func ValidateShader(source string) error {
	if source == "" {
		return fmt.Errorf("validate shader: empty source")
	}
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("validate shader: %w", err)
	}
	return nil
}

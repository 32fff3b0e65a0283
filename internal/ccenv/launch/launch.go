// Package launch applies a computed projection to the process environment
// and hands control to the target program.
package launch

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/ccenv/ccenv/internal/ccenv/project"
)

// DefaultTarget is the program launched after activation.
const DefaultTarget = "claude"

// Apply mutates the process environment per the projection: unsets first,
// then applies. This is the only place ccenv writes environment state.
func Apply(proj project.Projection) error {
	for _, name := range proj.Unset {
		if err := os.Unsetenv(name); err != nil {
			return fmt.Errorf("failed to unset %s: %w", name, err)
		}
	}
	for _, v := range proj.Apply {
		if err := os.Setenv(v.Name, v.Value); err != nil {
			return fmt.Errorf("failed to set %s: %w", v.Name, err)
		}
	}
	return nil
}

// Exec transfers control to the target program with the current environment,
// forwarding args unchanged. On POSIX systems the process image is replaced
// and Exec does not return on success; nothing may run after it.
func Exec(target string, args []string) error {
	path, err := exec.LookPath(target)
	if err != nil {
		return fmt.Errorf("target program %q not found: %w", target, err)
	}
	return execProcess(path, append([]string{target}, args...), os.Environ())
}

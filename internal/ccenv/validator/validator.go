package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ccenv/ccenv/internal/ccenv/domain"
)

var (
	reservedNamePattern = regexp.MustCompile(`^(?i)(con|prn|aux|nul|com[1-9]|lpt[1-9])$`)
	invalidCharsPattern = regexp.MustCompile(`[<>:"/\\|?*]`)
	identifierPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validator validates profile names and custom variable names.
type Validator struct{}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{}
}

// ValidateProfileName validates a profile name for filesystem safety and
// cross-platform compatibility.
//
// The function checks for:
//   - Empty names or whitespace-only names
//   - Dot navigation (. or ..)
//   - Null bytes (path traversal attack vector)
//   - Non-printable ASCII characters
//   - Invalid filesystem characters (<>:"/\|?*)
//   - Reserved Windows filenames (CON, PRN, AUX, NUL, COM1-9, LPT1-9)
func (v *Validator) ValidateProfileName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: profile name cannot be empty", domain.ErrInvalidName)
	}
	if trimmed == "." || trimmed == ".." {
		return fmt.Errorf("%w: profile name cannot be '.' or '..'", domain.ErrInvalidName)
	}
	if strings.ContainsRune(trimmed, 0) {
		return fmt.Errorf("%w: profile name contains null byte", domain.ErrInvalidName)
	}
	for _, r := range trimmed {
		if r < 0x20 || r > 0x7e {
			return fmt.Errorf("%w: profile name contains non-printable characters", domain.ErrInvalidName)
		}
	}
	if invalidCharsPattern.MatchString(trimmed) {
		return fmt.Errorf("%w: profile name contains invalid characters (<>:\"/\\|?*)", domain.ErrInvalidName)
	}
	if reservedNamePattern.MatchString(trimmed) {
		return fmt.Errorf("%w: profile name is a reserved system filename", domain.ErrInvalidName)
	}
	return nil
}

// NormalizeProfileName trims whitespace and validates the name.
func (v *Validator) NormalizeProfileName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := v.ValidateProfileName(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// ValidateCustomVarName validates a custom variable name. Names must follow
// identifier syntax and must not use the reserved standard-field prefixes;
// a reserved-prefix name could silently shadow a standard field during
// projection.
func (v *Validator) ValidateCustomVarName(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: variable name %q must match [A-Za-z_][A-Za-z0-9_]*", domain.ErrInvalidName, name)
	}
	for _, prefix := range []string{domain.ReservedPrefixAnthropic, domain.ReservedPrefixClaudeCode} {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("%w: variable name %q uses reserved prefix %s", domain.ErrInvalidName, name, prefix)
		}
	}
	return nil
}

// ValidateProfile checks the required fields of a profile before it is
// persisted.
func (v *Validator) ValidateProfile(p *domain.ProviderProfile) error {
	if err := v.ValidateProfileName(p.Name); err != nil {
		return err
	}
	if strings.TrimSpace(p.BaseURL) == "" {
		return fmt.Errorf("%w: base URL cannot be empty", domain.ErrValidation)
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("%w: API key cannot be empty", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Models.Main) == "" {
		return fmt.Errorf("%w: main model cannot be empty", domain.ErrValidation)
	}
	for _, cv := range p.CustomVars {
		if err := v.ValidateCustomVarName(cv.Name); err != nil {
			return err
		}
	}
	return nil
}

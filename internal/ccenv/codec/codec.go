// Package codec maps ProviderProfile records to and from their on-disk
// textual representation: a preamble, one export line per standard field, and
// an optional marker-delimited custom variable section.
package codec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ccenv/ccenv/internal/ccenv/domain"
)

const (
	// MarkerStart and MarkerEnd delimit the custom variable section. They
	// are always emitted as a pair.
	MarkerStart = "# >>> ccenv custom vars >>>"
	MarkerEnd   = "# <<< ccenv custom vars <<<"

	// markerToken is the substring shared by both markers. Lines mentioning
	// it are never parsed as assignments, and values containing it are
	// rejected so an encoded value cannot fabricate a marker.
	markerToken = "ccenv custom vars"
)

var exportLinePattern = regexp.MustCompile(`^export ([A-Za-z_][A-Za-z0-9_]*)="(.*)"$`)

const preamble = `# ccenv provider profile
# Standard fields are rewritten on every save. Custom variables live between
# the markers below and are edited in place.`

// Encode serializes a profile to its file representation. Standard fields are
// emitted in a fixed order; the custom section appears only when the profile
// has custom variables.
func Encode(p *domain.ProviderProfile) ([]byte, error) {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")

	for _, v := range p.StandardVars() {
		line, err := ExportLine(v.Name, v.Value)
		if err != nil {
			return nil, err
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(p.CustomVars) > 0 {
		b.WriteString("\n")
		b.WriteString(MarkerStart)
		b.WriteString("\n")
		for _, v := range p.CustomVars {
			line, err := ExportLine(v.Name, v.Value)
			if err != nil {
				return nil, err
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString(MarkerEnd)
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}

// Decode parses a profile file. Standard fields are keyed by variable name
// and may appear in any order; the custom section, if present, is the set of
// assignment lines strictly between the markers. The profile name is not part
// of the representation and is left empty for the caller to fill in.
func Decode(raw []byte) (*domain.ProviderProfile, error) {
	fields := make(map[string]string)
	present := make(map[string]bool)
	var custom []domain.EnvVar

	inSection := false
	sectionSeen := false
	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimRight(line, " \t")
		switch {
		case trimmed == MarkerStart:
			if sectionSeen || inSection {
				return nil, fmt.Errorf("%w: duplicate start marker", domain.ErrCustomSectionMalformed)
			}
			inSection = true
			sectionSeen = true
			continue
		case trimmed == MarkerEnd:
			if !inSection {
				return nil, fmt.Errorf("%w: end marker without start marker", domain.ErrCustomSectionMalformed)
			}
			inSection = false
			continue
		case strings.Contains(trimmed, markerToken):
			// Never treat marker-ish lines as assignments.
			continue
		}

		match := exportLinePattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		name := match[1]
		value, err := unescapeValue(match[2])
		if err != nil {
			return nil, err
		}
		if inSection {
			custom = append(custom, domain.EnvVar{Name: name, Value: value})
		} else {
			fields[name] = value
			present[name] = true
		}
	}
	if inSection {
		return nil, fmt.Errorf("%w: start marker without end marker", domain.ErrCustomSectionMalformed)
	}

	for _, required := range []string{domain.VarAuthToken, domain.VarBaseURL, domain.VarModelMain} {
		if !present[required] {
			return nil, fmt.Errorf("%w: missing required field %s", domain.ErrValidation, required)
		}
	}

	p := &domain.ProviderProfile{
		BaseURL: fields[domain.VarBaseURL],
		APIKey:  fields[domain.VarAuthToken],
		Models: domain.TierModels{
			Main: fields[domain.VarModelMain],
		},
		CustomVars: custom,
	}
	// Tier fallback applies only to absent fields. An explicitly empty value
	// stays empty; older or hand-edited profiles without per-tier overrides
	// inherit the main model.
	p.Models.Haiku = tierValue(fields, present, domain.VarModelHaiku, p.Models.Main)
	p.Models.Sonnet = tierValue(fields, present, domain.VarModelSonnet, p.Models.Main)
	p.Models.Opus = tierValue(fields, present, domain.VarModelOpus, p.Models.Main)
	p.Models.Subagent = tierValue(fields, present, domain.VarModelSubagent, p.Models.Main)
	p.Models.Small = tierValue(fields, present, domain.VarModelSmall, p.Models.Main)

	if present[domain.VarDisableTraffic] {
		v := fields[domain.VarDisableTraffic]
		p.DisableNonessentialTraffic = v == "1" || strings.EqualFold(v, "true")
	} else {
		p.DisableNonessentialTraffic = true
	}

	return p, nil
}

func tierValue(fields map[string]string, present map[string]bool, key, fallback string) string {
	if present[key] {
		return fields[key]
	}
	return fallback
}

// CustomVars extracts the custom section of a raw profile file without
// decoding the standard fields.
func CustomVars(raw []byte) ([]domain.EnvVar, error) {
	lines := strings.Split(string(raw), "\n")
	start, end, err := findSection(lines)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, nil
	}
	var vars []domain.EnvVar
	for _, line := range lines[start+1 : end] {
		name, value, ok, err := parseAssignment(line)
		if err != nil {
			return nil, err
		}
		if ok {
			vars = append(vars, domain.EnvVar{Name: name, Value: value})
		}
	}
	return vars, nil
}

// SetCustomVar adds or updates one custom variable with a targeted rewrite.
// Every byte outside the touched line (and, when the section is created, the
// appended marker pair) is preserved verbatim, including hand-edited content.
func SetCustomVar(raw []byte, name, value string) ([]byte, error) {
	line, err := ExportLine(name, value)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(raw), "\n")
	start, end, err := findSection(lines)
	if err != nil {
		return nil, err
	}

	if start < 0 {
		// No section yet: append a fresh marker pair at the end of the file.
		out := string(raw)
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += "\n" + MarkerStart + "\n" + line + "\n" + MarkerEnd + "\n"
		return []byte(out), nil
	}

	for i := start + 1; i < end; i++ {
		existing, _, ok, err := parseAssignment(lines[i])
		if err != nil {
			return nil, err
		}
		if ok && existing == name {
			lines[i] = line
			return []byte(strings.Join(lines, "\n")), nil
		}
	}

	// Not present: insert just before the end marker, keeping prior entries
	// in their original order and form.
	updated := make([]string, 0, len(lines)+1)
	updated = append(updated, lines[:end]...)
	updated = append(updated, line)
	updated = append(updated, lines[end:]...)
	return []byte(strings.Join(updated, "\n")), nil
}

// RemoveCustomVar deletes one custom variable with a targeted rewrite. When
// the last entry goes, the marker pair goes with it so a section is never
// left half-present.
func RemoveCustomVar(raw []byte, name string) ([]byte, error) {
	lines := strings.Split(string(raw), "\n")
	start, end, err := findSection(lines)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: custom variable %s", domain.ErrNotFound, name)
	}

	target := -1
	remaining := 0
	for i := start + 1; i < end; i++ {
		existing, _, ok, err := parseAssignment(lines[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if existing == name {
			target = i
		} else {
			remaining++
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: custom variable %s", domain.ErrNotFound, name)
	}

	var updated []string
	if remaining == 0 {
		// Dropping the whole section; also absorb one preceding blank line
		// that Encode emits before the start marker.
		cut := start
		if cut > 0 && lines[cut-1] == "" {
			cut--
		}
		updated = append(updated, lines[:cut]...)
		updated = append(updated, lines[end+1:]...)
	} else {
		updated = append(updated, lines[:target]...)
		updated = append(updated, lines[target+1:]...)
	}
	return []byte(strings.Join(updated, "\n")), nil
}

// findSection locates the marker pair. Returns (-1, -1, nil) when no section
// exists, or ErrCustomSectionMalformed when only one marker is present.
func findSection(lines []string) (int, int, error) {
	start, end := -1, -1
	for i, line := range lines {
		switch strings.TrimRight(line, " \t") {
		case MarkerStart:
			if start >= 0 {
				return 0, 0, fmt.Errorf("%w: duplicate start marker", domain.ErrCustomSectionMalformed)
			}
			start = i
		case MarkerEnd:
			if start < 0 || end >= 0 {
				return 0, 0, fmt.Errorf("%w: unexpected end marker", domain.ErrCustomSectionMalformed)
			}
			end = i
		}
	}
	if start >= 0 && end < 0 {
		return 0, 0, fmt.Errorf("%w: start marker without end marker", domain.ErrCustomSectionMalformed)
	}
	return start, end, nil
}

func parseAssignment(line string) (name, value string, ok bool, err error) {
	trimmed := strings.TrimRight(line, " \t")
	if strings.Contains(trimmed, markerToken) {
		return "", "", false, nil
	}
	match := exportLinePattern.FindStringSubmatch(trimmed)
	if match == nil {
		return "", "", false, nil
	}
	value, err = unescapeValue(match[2])
	if err != nil {
		return "", "", false, err
	}
	return match[1], value, true, nil
}

func ExportLine(name, value string) (string, error) {
	if strings.ContainsAny(value, "\n\r") {
		return "", fmt.Errorf("%w: value of %s contains a line break", domain.ErrValidation, name)
	}
	if strings.Contains(value, markerToken) {
		return "", fmt.Errorf("%w: value of %s would fabricate a section marker", domain.ErrValidation, name)
	}
	return fmt.Sprintf(`export %s="%s"`, name, escapeValue(value)), nil
}

// escapeValue protects the characters that are special inside double quotes
// in shell so any value round-trips through encode and decode.
func escapeValue(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescapeValue(value string) (string, error) {
	var b strings.Builder
	escaped := false
	for _, r := range value {
		if escaped {
			switch r {
			case '\\', '"', '$', '`':
				b.WriteRune(r)
			default:
				// Inside double quotes, a backslash before anything else is
				// literal.
				b.WriteByte('\\')
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '"' {
			return "", fmt.Errorf("%w: unescaped quote in value", domain.ErrValidation)
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String(), nil
}

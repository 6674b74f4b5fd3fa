package transformer

import "strings"

// QualifiedNameSeparator joins qualified name segments.
const QualifiedNameSeparator = "/"

// BuildQualifiedName joins segments from the most general (connection) to the
// most specific (the entity's own name). Empty segments are skipped rather than
// producing empty path components. Segments are used verbatim.
func BuildQualifiedName(parts ...string) string {
	present := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		present = append(present, p)
	}
	return strings.Join(present, QualifiedNameSeparator)
}

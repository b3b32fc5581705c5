package auth

import "strings"

const (
	RoleAdmin            = "admin"
	RoleMitarbeiter      = "mitarbeiter"
	RoleAbteilungsleiter = "abteilungsleiter"
	RoleKunde            = "kunde"
)

var knownRoles = []string{RoleAdmin, RoleMitarbeiter, RoleAbteilungsleiter, RoleKunde}

// NormalizeRoles maps role names case-insensitively onto the known roles and
// drops everything else. Duplicates are removed, order is kept.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		for _, known := range knownRoles {
			if strings.EqualFold(strings.TrimSpace(r), known) && !seen[known] {
				seen[known] = true
				out = append(out, known)
			}
		}
	}
	return out
}

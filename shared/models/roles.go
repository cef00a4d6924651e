package models

import "slices"

const (
	RoleAdmin  = "ROLE_ADMIN"
	RoleAuthor = "ROLE_AUTHOR"
	RoleUser   = "ROLE_USER"
)

// HasRole проверяет, есть ли у пользователя хотя бы одна из ролей.
func HasRole(userRoles []string, targetRoles ...string) bool {
	for _, role := range targetRoles {
		if slices.Contains(userRoles, role) {
			return true
		}
	}
	return false
}

package model

import "time"

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	FamilyIDs   []string  `json:"family_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InFamily reports whether the user belongs to the given family.
func (u *User) InFamily(familyID string) bool {
	for _, id := range u.FamilyIDs {
		if id == familyID {
			return true
		}
	}
	return false
}

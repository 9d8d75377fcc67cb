package auth

// Caller is the identity carried by a verified bridge token.
type Caller struct {
	Subject  string   `json:"sub"`
	Audience []string `json:"aud"`
	Roles    []string `json:"roles,omitempty"`
}

// HasRole reports whether the caller carries role.
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

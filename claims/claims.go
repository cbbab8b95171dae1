package claims

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// JWTClaims is the platform identity presented on API requests.
type JWTClaims struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	AppMetaData  map[string]interface{} `json:"app_metadata"`
	UserMetaData map[string]interface{} `json:"user_metadata"`
	jwt.StandardClaims
}

// HasRole reports whether the claims carry the given role in their
// app_metadata roles list.
func (c *JWTClaims) HasRole(role string) bool {
	if c.AppMetaData == nil {
		return false
	}
	roles, ok := c.AppMetaData["roles"]
	if !ok {
		return false
	}
	roleStrings, _ := roles.([]interface{})
	for _, data := range roleStrings {
		if r, _ := data.(string); r == role {
			return true
		}
	}
	return false
}

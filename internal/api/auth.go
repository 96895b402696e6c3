package api

import (
	"encoding/base64"
	"net/http"
)

// Credentials authenticate requests against the platform. Password and
// cookie are alternatives: when a cookie is present it is sent and the
// password is ignored, matching the platform's session convention.
type Credentials struct {
	UserID   string
	Password string
	Cookie   string
}

// apply sets the authentication headers on h. A nil receiver sets nothing.
func (c *Credentials) apply(h http.Header) {
	if c == nil {
		return
	}
	if c.Cookie != "" {
		h.Set("Cookie", c.Cookie)
		return
	}
	if c.Password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(c.UserID + ":" + c.Password))
		h.Set("Authorization", "Basic "+token)
	}
}

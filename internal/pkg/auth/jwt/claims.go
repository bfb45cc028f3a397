package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims issued by the NexChat relay.
// Only the admin surface (maintenance toggle, channel stats) is token
// guarded; the document endpoints themselves are open by contract.
type Payload struct {
	// StandardClaims embeds the JWT standard fields (Exp, Iat, Iss)
	// required for validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// Role identifies the token holder's privilege level. The relay only
	// issues "admin" today; the field exists so future roles do not need
	// a new claim shape.
	Role string `json:"role"`
}

// RoleAdmin is the role carried by tokens from a successful admin login.
const RoleAdmin = "admin"

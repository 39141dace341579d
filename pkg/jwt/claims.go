package jwt

import (
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/golang-jwt/jwt/v5"
)

// CallerClaims is the token an upstream identity provider issues for a
// tournament caller.
type CallerClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// Caller converts the claims into the identity the services consume.
func (c *CallerClaims) Caller() caller.Caller {
	return caller.Caller{
		ID:         c.Subject,
		Privileged: Role(c.Role) == RoleAdmin,
	}
}

package port

import "github.com/MikeRez0/novacart/internal/core/domain"

type TokenPayload struct {
	UserID uint64      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

func (p *TokenPayload) Identity() *domain.Identity {
	if p == nil {
		return nil
	}
	return &domain.Identity{UserID: p.UserID, Role: p.Role}
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	CreateToken(user *domain.User) (string, error)
	VerifyToken(token string) (*TokenPayload, error)
}

package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/MikeRez0/novacart/internal/adapter/config"
	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/port"
)

const payloadClaim = "payload"

type PasetoToken struct {
	parser *paseto.Parser
	key    *paseto.V4SymmetricKey
	ttl    time.Duration
}

func New(conf *config.Auth) (port.TokenService, error) {
	var key paseto.V4SymmetricKey
	if conf.SymmetricKey == "" {
		key = paseto.NewV4SymmetricKey()
	} else {
		var err error
		key, err = paseto.V4SymmetricKeyFromHex(conf.SymmetricKey)
		if err != nil {
			return nil, fmt.Errorf("invalid token key: %w", err)
		}
	}

	ttl := conf.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	parser := paseto.NewParser()
	s := PasetoToken{
		parser: &parser,
		key:    &key,
		ttl:    ttl,
	}

	return &s, nil
}

func (p *PasetoToken) CreateToken(user *domain.User) (string, error) {
	token := paseto.NewToken()
	now := time.Now()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(p.ttl))
	token.SetSubject(fmt.Sprint(user.ID))

	payload := port.TokenPayload{UserID: user.ID, Role: user.Role}
	err := token.Set(payloadClaim, payload)
	if err != nil {
		return "", domain.ErrTokenCreation
	}

	return token.V4Encrypt(*p.key, nil), nil
}

func (p *PasetoToken) VerifyToken(token string) (*port.TokenPayload, error) {
	parsedToken, err := p.parser.ParseV4Local(*p.key, token, nil)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	payload := port.TokenPayload{}
	err = parsedToken.Get(payloadClaim, &payload)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if payload.UserID == 0 || !payload.Role.Valid() {
		return nil, domain.ErrInvalidToken
	}
	return &payload, nil
}

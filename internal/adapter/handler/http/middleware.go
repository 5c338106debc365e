package http

import (
	"strings"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/port"
	"github.com/gin-gonic/gin"
)

const authHeaderKey = "Authorization"
const authType = "Bearer"
const userPayloadKey = "user_payload"

// authCheck requires a valid bearer token and stores its payload.
func authCheck(h *Handler, tokenService port.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		payload, err := verifyHeader(ctx, tokenService)
		if err != nil {
			h.handleAbort(ctx, err)
			return
		}

		ctx.Set(userPayloadKey, payload)

		ctx.Next()
	}
}

// optionalAuth stores the payload when a valid token is present and lets
// anonymous requests through.
func optionalAuth(tokenService port.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader(authHeaderKey) != "" {
			if payload, err := verifyHeader(ctx, tokenService); err == nil {
				ctx.Set(userPayloadKey, payload)
			}
		}
		ctx.Next()
	}
}

func verifyHeader(ctx *gin.Context, tokenService port.TokenService) (*port.TokenPayload, error) {
	header := ctx.GetHeader(authHeaderKey)
	if len(header) == 0 {
		return nil, domain.ErrEmptyAuthorizationHeader
	}

	words := strings.Fields(header)
	if len(words) != 2 {
		return nil, domain.ErrInvalidAuthorizationHeader
	}
	if words[0] != authType {
		return nil, domain.ErrInvalidAuthorizationType
	}

	payload, err := tokenService.VerifyToken(words[1])
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return payload, nil
}

// identity returns the caller, or nil for an anonymous request.
func identity(ctx *gin.Context) *domain.Identity {
	v, ok := ctx.Get(userPayloadKey)
	if !ok {
		return nil
	}
	payload, _ := v.(*port.TokenPayload)
	return payload.Identity()
}

package service

import (
	"context"
	"fmt"

	"github.com/amanahapps/zakat-keeper/internal/config"
	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/utils"
	"github.com/amanahapps/zakat-keeper/models"
)

// authService implements [AuthService] over HMAC-signed JWT tokens.
type authService struct {
	config config.App
	logger *logger.Logger
}

// NewAuthService constructs an [AuthService] using the token parameters
// from cfg.
func NewAuthService(cfg config.App, log *logger.Logger) AuthService {
	return &authService{config: cfg, logger: log}
}

// CreateToken issues a signed token for userID with the given role claim.
func (s *authService) CreateToken(ctx context.Context, userID int64, role string) (models.Token, error) {
	log := logger.FromContext(ctx)

	token, err := utils.GenerateJWTToken(s.config.TokenIssuer, userID, role, s.config.TokenDuration, s.config.TokenSignKey)
	if err != nil {
		log.Err(err).
			Str("func", "authService.CreateToken").
			Int64("user_id", userID).
			Msg("failed to generate token")
		return models.Token{}, fmt.Errorf("error creating token: %w", err)
	}

	return token, nil
}

// ParseToken validates tokenString against the configured sign key and
// issuer. Every validation failure is normalized to
// ErrTokenIsExpiredOrInvalid so callers cannot distinguish why a token was
// rejected.
func (s *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, s.config.TokenSignKey, s.config.TokenIssuer)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenIsExpiredOrInvalid, err)
	}

	return token, nil
}

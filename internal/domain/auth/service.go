package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sementes/sementes-api/internal/domain/user"
	"github.com/sementes/sementes-api/internal/pkg/jwt"
	"github.com/sementes/sementes-api/internal/pkg/password"
)

type Service struct {
	users  *user.Repository
	tokens *RefreshTokenRepository
	jwtSvc *jwt.Service
}

func NewService(users *user.Repository, tokens *RefreshTokenRepository, jwtSvc *jwt.Service) *Service {
	return &Service{users: users, tokens: tokens, jwtSvc: jwtSvc}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	// Self-registration never grants admin
	role := user.Role(req.Role)
	if role == user.RoleAdmin {
		role = user.RoleUser
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("user registered")
	return &AuthResponse{User: u, Tokens: tokens}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: u, Tokens: tokens}, nil
}

// Refresh rotates the refresh token: the presented token is marked used
// exactly once and a fresh pair is issued. Replay of a rotated token
// revokes the whole session family.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	hash := jwt.HashRefreshToken(refreshToken)
	rec, err := s.tokens.GetByTokenHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if rec.RevokedAt.Valid || time.Now().After(rec.ExpiresAt) {
		return nil, ErrInvalidRefresh
	}

	if err := s.tokens.MarkUsed(ctx, hash); err != nil {
		if errors.Is(err, ErrRefreshReused) {
			if revokeErr := s.tokens.RevokeAllByUserID(ctx, claims.UserID); revokeErr != nil {
				log.Error().Err(revokeErr).Str("user_id", claims.UserID.String()).Msg("failed to revoke sessions after refresh reuse")
			}
			log.Warn().Str("user_id", claims.UserID.String()).Msg("refresh token reuse detected, sessions revoked")
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	hash := jwt.HashRefreshToken(refreshToken)
	return s.tokens.RevokeByTokenHash(ctx, hash)
}

func (s *Service) issueTokens(ctx context.Context, u *user.User) (TokenPair, error) {
	access, err := s.jwtSvc.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return TokenPair{}, err
	}

	refresh, jti, expiresAt, err := s.jwtSvc.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}

	rec := &RefreshTokenRecord{
		ID:        uuid.New(),
		UserID:    u.ID,
		TokenHash: jwt.HashRefreshToken(refresh),
		JTI:       jti,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtSvc.GetAccessTTL().Seconds()),
	}, nil
}

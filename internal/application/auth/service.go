package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"nexar-backend/internal/application/emails"
	policies "nexar-backend/internal/application/policies/user"
	"nexar-backend/internal/domain"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/constants"
	"nexar-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service implements signup, confirmation, login and password recovery.
type Service struct {
	DB          *gorm.DB
	Rdb         *redis.Client
	Tokens      *TokenIssuer
	Mailer      emails.Sender
	AppBaseURL  string
	AdminEmails []string
	HashCost    int
}

// Summary is the user summary returned after login or confirmation and cached in the session.
type Summary struct {
	ID         string `json:"id"`
	ProfileID  string `json:"profile_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	SellerType string `json:"seller_type"`
	IsAdmin    bool   `json:"is_admin"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// SessionUser converts the summary to the session shape.
func (s *Summary) SessionUser() middleware.SessionUser {
	return middleware.SessionUser{
		UserID:     s.ID,
		ProfileID:  s.ProfileID,
		Name:       s.Name,
		Email:      s.Email,
		SellerType: s.SellerType,
		IsAdmin:    s.IsAdmin,
	}
}

type SignupInput struct {
	Name       string
	Email      string
	Password   string
	Phone      string
	Location   string
	SellerType string
}

type ResetPasswordInput struct {
	Token           string
	Password        string
	ConfirmPassword string
}

func (s *Service) hashCost() int {
	if s.HashCost > 0 {
		return s.HashCost
	}
	return bcrypt.DefaultCost
}

func (s *Service) isBootstrapAdmin(email string) bool {
	for _, e := range s.AdminEmails {
		if validation.NormalizeEmail(e) == email {
			return true
		}
	}
	return false
}

func (s *Service) link(path, token string) string {
	return strings.TrimRight(s.AppBaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func (s *Service) summary(u *domain.User, p *domain.Profile) *Summary {
	return &Summary{
		ID:         u.ID.String(),
		ProfileID:  p.ID.String(),
		Name:       p.Name,
		Email:      u.Email,
		SellerType: p.SellerType,
		IsAdmin:    p.IsAdmin || s.isBootstrapAdmin(u.Email),
		IsLoggedIn: true,
	}
}

func validateSignup(in *SignupInput) error {
	errs := validation.Errors{}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = validation.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Location = strings.TrimSpace(in.Location)
	if in.SellerType == "" {
		in.SellerType = constants.SellerIndividual
	}

	if in.Name == "" {
		errs.Add("name", "Name is required")
	} else if !validation.IsValidName(in.Name) {
		errs.Add("name", "Name may only contain letters, spaces, dots, hyphens and apostrophes")
	}
	if in.Email == "" {
		errs.Add("email", "Email is required")
	} else if !validation.IsValidEmail(in.Email) {
		errs.Add("email", "Invalid email address")
	}
	if msg := validation.PasswordProblem(in.Password); msg != "" {
		errs.Add("password", msg)
	}
	if !constants.IsValidSellerType(in.SellerType) {
		errs.Add("seller_type", "Seller type must be individual or dealer")
	}
	return errs.OrNil()
}

// Signup creates the auth identity and its profile in one transaction, then mails a
// confirmation link. A mail failure is logged; the user can request a new link.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Profile, error) {
	if err := validateSignup(&in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Email: in.Email, PasswordHash: string(hash)}
	profile := &domain.Profile{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Location:   in.Location,
		SellerType: in.SellerType,
		IsAdmin:    s.isBootstrapAdmin(in.Email),
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.sendConfirmation(ctx, user, profile)
	return profile, nil
}

func (s *Service) sendConfirmation(ctx context.Context, u *domain.User, p *domain.Profile) {
	token, err := s.Tokens.Issue(u.ID, PurposeSignup)
	if err != nil {
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("auth: failed to issue confirmation token")
		return
	}
	if err := s.Mailer.SendConfirmation(ctx, u.Email, p.Name, s.link("/auth/confirm", token)); err != nil {
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("auth: failed to send confirmation email")
	}
}

// ResendConfirmation mails a new link to an unconfirmed account. Unknown or already confirmed
// addresses are ignored so the endpoint does not reveal which accounts exist.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	u, p, err := s.accountByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !u.Confirmed() {
		s.sendConfirmation(ctx, u, p)
	}
	return nil
}

// ConfirmEmail consumes a signup token, marks the address confirmed and returns the summary
// used to open a session.
func (s *Service) ConfirmEmail(ctx context.Context, token string) (*Summary, error) {
	claims, err := s.Tokens.Parse(token, PurposeSignup)
	if err != nil {
		return nil, ErrConfirmLinkInvalid
	}
	u, p, err := s.accountByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfirmLinkInvalid
		}
		return nil, err
	}
	if err := s.Tokens.Consume(ctx, claims); err != nil {
		if errors.Is(err, errTokenInvalid) {
			return nil, ErrConfirmLinkInvalid
		}
		return nil, err
	}
	if !u.Confirmed() {
		now := time.Now().UTC()
		if err := s.DB.WithContext(ctx).Model(u).Update("email_confirmed_at", now).Error; err != nil {
			return nil, fmt.Errorf("confirm email: %w", err)
		}
		u.EmailConfirmedAt = &now
	}
	if p.Suspended {
		return nil, ErrAccountSuspended
	}
	return s.summary(u, p), nil
}

// Login verifies credentials. Unconfirmed and suspended accounts cannot log in.
func (s *Service) Login(ctx context.Context, email, password string) (*Summary, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrEmailPasswordRequired
	}
	u, p, err := s.accountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}
	if p.Suspended {
		return nil, ErrAccountSuspended
	}
	return s.summary(u, p), nil
}

// Me re-reads the account behind a session so /me reflects admin changes immediately.
func (s *Service) Me(ctx context.Context, userID string) (*Summary, error) {
	u, p, err := s.accountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	if p.Suspended {
		return nil, ErrAccountSuspended
	}
	return s.summary(u, p), nil
}

// RequestPasswordReset mails a recovery link when the account exists. It never reports whether
// the address is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, p, err := s.accountByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	token, err := s.Tokens.Issue(u.ID, PurposeRecovery)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordReset(ctx, u.Email, p.Name, s.link("/reset-password", token)); err != nil {
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("auth: failed to send password reset email")
	}
	return nil
}

// VerifyResetToken reports whether a recovery link can still be used, without consuming it.
func (s *Service) VerifyResetToken(ctx context.Context, token string) error {
	claims, err := s.Tokens.Parse(token, PurposeRecovery)
	if err != nil {
		return ErrResetLinkInvalid
	}
	used, err := s.Tokens.Used(ctx, claims)
	if err != nil {
		return err
	}
	if used {
		return ErrResetLinkInvalid
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", claims.UserID).Count(&count).Error; err != nil {
		return fmt.Errorf("verify reset token: %w", err)
	}
	if count == 0 {
		return ErrResetLinkInvalid
	}
	return nil
}

func validateNewPassword(in ResetPasswordInput) error {
	errs := validation.Errors{}
	if msg := validation.PasswordProblem(in.Password); msg != "" {
		errs.Add("password", msg)
	}
	if in.Password != in.ConfirmPassword {
		errs.Add("confirm_password", "Passwords do not match")
	}
	return errs.OrNil()
}

// ResetPassword validates the new password, consumes the recovery token, stores the new hash
// and destroys every session of the user.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.Token == "" {
		return ErrResetLinkInvalid
	}
	if err := validateNewPassword(in); err != nil {
		return err
	}
	claims, err := s.Tokens.Parse(in.Token, PurposeRecovery)
	if err != nil {
		return ErrResetLinkInvalid
	}
	if err := s.Tokens.Consume(ctx, claims); err != nil {
		if errors.Is(err, errTokenInvalid) {
			return ErrResetLinkInvalid
		}
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost())
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", claims.UserID).Update("password_hash", string(hash))
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrResetLinkInvalid
	}
	policies.DestroyUserSessions(ctx, s.Rdb, claims.UserID)
	return nil
}

func (s *Service) accountByEmail(ctx context.Context, email string) (*domain.User, *domain.Profile, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, nil, err
	}
	p, err := s.profileFor(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return &u, p, nil
}

func (s *Service) accountByUserID(ctx context.Context, userID string) (*domain.User, *domain.Profile, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil, gorm.ErrRecordNotFound
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, nil, err
	}
	p, err := s.profileFor(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return &u, p, nil
}

func (s *Service) profileFor(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/medshare/backend/core"
)

// RankingLimit caps the number of entries a ranking projection returns.
const RankingLimit = 50

// Ranking scopes
const (
	ScopeNational   = "national"
	ScopeUniversity = "university"
)

type User struct {
	ID             string    `json:"id"`
	Nickname       string    `json:"nickname"`
	Email          string    `json:"email"`
	UniversityID   string    `json:"university_id"`
	PasswordHash   []byte    `json:"-"`
	Points         int       `json:"points"`
	AIBonusPending bool      `json:"-"`
	Avatar         string    `json:"avatar,omitempty"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
	LastLogin      time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// PendingUser is a registration awaiting email verification. The account is
// only created once the emailed token is consumed.
type PendingUser struct {
	Token        string
	Nickname     string
	Email        string
	UniversityID string
	PasswordHash []byte
	CreatedAt    time.Time // UTC
}

func (p PendingUser) Expired() bool {
	return time.Now().UTC().Sub(p.CreatedAt) > core.Conf.EmailVerificationTimeout
}

// Registration contains information needed to start a new sign-up.
type Registration struct {
	Nickname        string `json:"nickname" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	UniversityID    string `json:"university_id" validate:"required,university"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (r *Registration) Validate(svc Service) error {
	r.Nickname = core.CleanString(r.Nickname)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.UniversityID = core.CleanString(r.UniversityID, true /* lower */)

	if err := core.Validate.Struct(r); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(r.Email)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

// RankingEntry is one row of the leaderboard projection. Rank is the 1-based
// position in the sorted sequence, not a stored field.
type RankingEntry struct {
	Rank         int    `json:"rank"`
	Nickname     string `json:"nickname"`
	UniversityID string `json:"university_id"`
	Points       int    `json:"points"`
	Avatar       string `json:"avatar,omitempty"`
}

package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/medshare/backend/core"
)

var (
	// errors
	ErrNotFound            = errors.New("user not found")
	ErrEmailExists         = errors.New("a user with this email already exists")
	ErrVerificationInvalid = errors.New("invalid verification link")
	ErrVerificationExpired = errors.New("verification link has expired")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		// CreatePendingUser replaces any previous pending registration for the same email.
		CreatePendingUser(ctx context.Context, pu PendingUser) (PendingUser, error)
		GetPendingUserByToken(ctx context.Context, token string) (PendingUser, error)
		DeletePendingUser(ctx context.Context, token string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		SetUserPassword(ctx context.Context, id string, hash []byte) error
		SetUserLastLogin(ctx context.Context, id string, t time.Time) error
		SetUserAvatar(ctx context.Context, id, avatar string) (User, error)
		// AddUserPoints atomically applies a point delta and returns the new total.
		AddUserPoints(ctx context.Context, id string, delta int) (int, error)
		GrantAIBonus(ctx context.Context, id string) error
		// ConsumeAIBonus atomically clears the pending bonus flag, reporting
		// whether it was set. At-most-once under concurrent callers.
		ConsumeAIBonus(ctx context.Context, id string) (bool, error)
		// FilterRankings returns up to limit users ordered by points DESC,
		// ties broken by created_at ASC then id ASC. An empty universityID
		// means no scope filter.
		FilterRankings(ctx context.Context, universityID string, limit int) ([]User, error)
	}

	Service interface {
		Register(ctx context.Context, reg Registration) (PendingUser, error)
		Verify(ctx context.Context, token string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetAvatar(ctx context.Context, id, avatar string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
		AwardPostPoints(ctx context.Context, id string, fileCount int) (int, error)
		GrantQuizBonus(ctx context.Context, id string) error
		Rankings(ctx context.Context, scope, universityID string) ([]RankingEntry, error)
		CheckEmailUniqueness(email string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{repo: repo, mailSvc: mailSvc}
}

func (svc *service) CheckEmailUniqueness(email string) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register stores a pending registration under an opaque token and mails a
// verification link. The account itself is not created until Verify.
func (svc *service) Register(ctx context.Context, reg Registration) (PendingUser, error) {
	pu := PendingUser{
		Token:        uuid.NewString(),
		Nickname:     reg.Nickname,
		Email:        reg.Email,
		UniversityID: reg.UniversityID,
		CreatedAt:    time.Now().UTC(),
	}

	var usr User
	if err := usr.SetPassword(reg.Password); err != nil {
		return PendingUser{}, err
	}
	pu.PasswordHash = usr.PasswordHash

	pu, err := svc.repo.CreatePendingUser(ctx, pu)
	if err != nil {
		return PendingUser{}, err
	}

	svc.sendVerificationMail(pu)
	return pu, nil
}

// Verify consumes a verification token and creates the account.
func (svc *service) Verify(ctx context.Context, token string) (User, error) {
	pu, err := svc.repo.GetPendingUserByToken(ctx, token)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrVerificationInvalid
		}
		return User{}, err
	}

	if pu.Expired() {
		_ = svc.repo.DeletePendingUser(ctx, token)
		return User{}, ErrVerificationExpired
	}

	// the email may have been verified from another pending registration meanwhile
	if err = svc.repo.CheckEmailUniqueness(ctx, pu.Email); err != nil {
		_ = svc.repo.DeletePendingUser(ctx, token)
		if err == ErrEmailExists {
			return User{}, ErrVerificationInvalid
		}
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Nickname:     pu.Nickname,
		Email:        pu.Email,
		UniversityID: pu.UniversityID,
		PasswordHash: pu.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	if err = svc.repo.DeletePendingUser(ctx, token); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	if err := svc.repo.SetUserLastLogin(ctx, usr.ID, usr.LastLogin); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) SetAvatar(ctx context.Context, id, avatar string) (User, error) {
	return svc.repo.SetUserAvatar(ctx, id, avatar)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	return svc.repo.SetUserPassword(ctx, usr.ID, usr.PasswordHash)
}

// AwardPostPoints applies the award schedule for a post creation event:
// the base award, a per-file award, and the one-shot AI assistance bonus
// when the user's pending flag is consumed. Returns the earned delta.
func (svc *service) AwardPostPoints(ctx context.Context, id string, fileCount int) (int, error) {
	earned := core.Conf.Points.BasePost
	if fileCount > 0 {
		earned += fileCount * core.Conf.Points.PerFile
	}

	consumed, err := svc.repo.ConsumeAIBonus(ctx, id)
	if err != nil {
		return 0, err
	}
	if consumed {
		earned += core.Conf.Points.AIAssistance
	}

	if _, err = svc.repo.AddUserPoints(ctx, id, earned); err != nil {
		return 0, err
	}
	return earned, nil
}

func (svc *service) GrantQuizBonus(ctx context.Context, id string) error {
	return svc.repo.GrantAIBonus(ctx, id)
}

// Rankings projects the leaderboard for the given scope. University scope
// requires a university ID.
func (svc *service) Rankings(ctx context.Context, scope, universityID string) ([]RankingEntry, error) {
	switch scope {
	case ScopeNational:
		universityID = ""
	case ScopeUniversity:
		if universityID == "" {
			return nil, core.NewValidationError(
				nil, core.FieldError{Field: "university_id", Error: "this field is required for university scope"})
		}
	default:
		return nil, core.NewValidationError(
			nil, core.FieldError{Field: "scope", Error: fmt.Sprintf("unknown scope %q", scope)})
	}

	users, err := svc.repo.FilterRankings(ctx, universityID, RankingLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]RankingEntry, 0, len(users))
	for i, usr := range users {
		entries = append(entries, RankingEntry{
			Rank:         i + 1,
			Nickname:     usr.Nickname,
			UniversityID: usr.UniversityID,
			Points:       usr.Points,
			Avatar:       usr.Avatar,
		})
	}
	return entries, nil
}

func (svc *service) sendVerificationMail(pu PendingUser) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: pu.Nickname, Address: pu.Email}},
		Subject:      "メールアドレスの確認",
		TemplateName: "email-verify",
		TemplateData: struct {
			Nickname  string
			VerifyURL string
			ValidFor  string
		}{
			Nickname:  pu.Nickname,
			VerifyURL: fmt.Sprintf("%s/verify?token=%s", core.Conf.FrontendBaseURL, pu.Token),
			ValidFor:  formatDuration(core.Conf.EmailVerificationTimeout),
		},
	})
}

func (svc *service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Nickname, Address: usr.Email}},
		Subject:      "パスワードリセット",
		TemplateName: "password-reset",
		TemplateData: struct {
			Nickname string
			ResetURL string
			ValidFor string
		}{
			Nickname: usr.Nickname,
			ResetURL: fmt.Sprintf("%s/reset-password?uid=%s&token=%s", core.Conf.FrontendBaseURL, EncodeUID(usr), makeToken(usr)),
			ValidFor: formatDuration(core.Conf.PasswordResetTimeout),
		},
	})
}

func formatDuration(d time.Duration) string {
	if h := int(d.Hours()); h >= 1 {
		return fmt.Sprintf("%d時間", h)
	}
	return fmt.Sprintf("%d分", int(d.Minutes()))
}

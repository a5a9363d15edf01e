package user_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/medshare/backend/core"
	"github.com/medshare/backend/core/user"
	emailsvc "github.com/medshare/backend/services/email"
	inmemdb "github.com/medshare/backend/storage/database/inmem"
	testutil "github.com/medshare/backend/tests"
)

func setup() (user.Service, user.Repository) {
	db := inmemdb.NewDB()
	repo := inmemdb.NewUserRepository(db)
	svc := user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock())
	return svc, repo
}

func sentMessagesCount() int {
	return len(emailsvc.SentMessages)
}

func Test_service_RegisterAndVerify(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	reg := user.Registration{
		Nickname:        "Taro",
		Email:           "taro@hatomed.ac.jp",
		UniversityID:    "hatomed",
		Password:        "s3cr3t-Passw0rd",
		PasswordConfirm: "s3cr3t-Passw0rd",
	}

	sentBefore := sentMessagesCount()
	pu, err := svc.Register(ctx, reg)
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if pu.Token == "" {
		t.Error("Register() returned an empty token")
	}
	if sentMessagesCount() != sentBefore+1 {
		t.Error("Register() did not send a verification email")
	}
	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	if !strings.Contains(msg.TextContent, pu.Token) {
		t.Error("verification email does not contain the token")
	}

	// account does not exist until verified
	if _, err = svc.GetByEmail(ctx, reg.Email); err != user.ErrNotFound {
		t.Errorf("GetByEmail() before Verify: err = %v; want ErrNotFound", err)
	}

	usr, err := svc.Verify(ctx, pu.Token)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if usr.Email != reg.Email || usr.UniversityID != reg.UniversityID {
		t.Errorf("Verify() created user = %+v; want email %q university %q", usr, reg.Email, reg.UniversityID)
	}
	if err = usr.CheckPassword(reg.Password); err != nil {
		t.Error("Verify() created user with wrong password")
	}

	// token is single-use
	if _, err = svc.Verify(ctx, pu.Token); err != user.ErrVerificationInvalid {
		t.Errorf("Verify() reuse: err = %v; want ErrVerificationInvalid", err)
	}

	// registered email is no longer unique
	if err = svc.CheckEmailUniqueness(reg.Email); err == nil {
		t.Error("CheckEmailUniqueness() passed for a taken email")
	}
}

func Test_service_VerifyExpired(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	pu := user.PendingUser{
		Token:        "expired-token",
		Nickname:     "Hana",
		Email:        "hana@hatomed.ac.jp",
		UniversityID: "hatomed",
		CreatedAt:    time.Now().UTC().Add(-core.Conf.EmailVerificationTimeout - time.Minute),
	}
	if _, err := repo.CreatePendingUser(ctx, pu); err != nil {
		t.Fatalf("CreatePendingUser() failed: %v", err)
	}

	if _, err := svc.Verify(ctx, pu.Token); err != user.ErrVerificationExpired {
		t.Errorf("Verify() err = %v; want ErrVerificationExpired", err)
	}

	// expired pending registration is dropped
	if _, err := svc.Verify(ctx, pu.Token); err != user.ErrVerificationInvalid {
		t.Errorf("Verify() retry: err = %v; want ErrVerificationInvalid", err)
	}
}

func Test_service_VerifyUnknownToken(t *testing.T) {
	svc, _ := setup()

	if _, err := svc.Verify(context.Background(), "nope"); err != user.ErrVerificationInvalid {
		t.Errorf("Verify() err = %v; want ErrVerificationInvalid", err)
	}
}

func Test_service_AwardPostPoints(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Jiro", "jiro@hatomed.ac.jp", "hatomed", "")

	tests := []struct {
		name       string
		fileCount  int
		grantBonus bool
		wantEarned int
	}{
		{name: "text only", wantEarned: 1},
		{name: "two files", fileCount: 2, wantEarned: 21},
		{name: "bonus pending", fileCount: 1, grantBonus: true, wantEarned: 16},
		{name: "bonus is one-shot", fileCount: 1, wantEarned: 11},
	}

	var total int
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.grantBonus {
				if err := svc.GrantQuizBonus(ctx, usr.ID); err != nil {
					t.Fatalf("GrantQuizBonus() failed: %v", err)
				}
			}
			earned, err := svc.AwardPostPoints(ctx, usr.ID, tt.fileCount)
			if err != nil {
				t.Fatalf("AwardPostPoints() failed: %v", err)
			}
			if earned != tt.wantEarned {
				t.Errorf("AwardPostPoints() earned = %d; want %d", earned, tt.wantEarned)
			}
			total += earned

			got, err := svc.GetByID(ctx, usr.ID)
			if err != nil {
				t.Fatalf("GetByID() failed: %v", err)
			}
			if got.Points != total {
				t.Errorf("Points = %d; want %d", got.Points, total)
			}
		})
	}
}

func Test_service_Rankings(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	now := time.Now().UTC()
	addPoints := func(usr user.User, pts int) {
		if _, err := repo.AddUserPoints(ctx, usr.ID, pts); err != nil {
			t.Fatalf("AddUserPoints() failed: %v", err)
		}
	}

	top := testutil.CreateUser(t, repo, "Top", "top@hatomed.ac.jp", "hatomed", "", now)
	second := testutil.CreateUser(t, repo, "Second", "second@sagimed.ac.jp", "sagimed", "", now)
	// earlier account wins the tie
	tieOld := testutil.CreateUser(t, repo, "TieOld", "tieold@hatomed.ac.jp", "hatomed", "", now.Add(-time.Hour))
	tieNew := testutil.CreateUser(t, repo, "TieNew", "tienew@hatomed.ac.jp", "hatomed", "", now)

	addPoints(top, 100)
	addPoints(second, 50)
	addPoints(tieOld, 10)
	addPoints(tieNew, 10)

	t.Run("national", func(t *testing.T) {
		entries, err := svc.Rankings(ctx, user.ScopeNational, "")
		if err != nil {
			t.Fatalf("Rankings() failed: %v", err)
		}
		wantOrder := []string{"Top", "Second", "TieOld", "TieNew"}
		if len(entries) != len(wantOrder) {
			t.Fatalf("Rankings() returned %d entries; want %d", len(entries), len(wantOrder))
		}
		for i, want := range wantOrder {
			if entries[i].Nickname != want {
				t.Errorf("entries[%d].Nickname = %q; want %q", i, entries[i].Nickname, want)
			}
			if entries[i].Rank != i+1 {
				t.Errorf("entries[%d].Rank = %d; want %d", i, entries[i].Rank, i+1)
			}
		}
	})

	t.Run("university scope", func(t *testing.T) {
		entries, err := svc.Rankings(ctx, user.ScopeUniversity, "hatomed")
		if err != nil {
			t.Fatalf("Rankings() failed: %v", err)
		}
		wantOrder := []string{"Top", "TieOld", "TieNew"}
		if len(entries) != len(wantOrder) {
			t.Fatalf("Rankings() returned %d entries; want %d", len(entries), len(wantOrder))
		}
		for i, want := range wantOrder {
			if entries[i].Nickname != want {
				t.Errorf("entries[%d].Nickname = %q; want %q", i, entries[i].Nickname, want)
			}
		}
	})

	t.Run("university scope requires ID", func(t *testing.T) {
		if _, err := svc.Rankings(ctx, user.ScopeUniversity, ""); err == nil {
			t.Error("Rankings() passed without a university ID")
		}
	})

	t.Run("unknown scope", func(t *testing.T) {
		if _, err := svc.Rankings(ctx, "galactic", ""); err == nil {
			t.Error("Rankings() passed with an unknown scope")
		}
	})
}

func Test_service_RankingsLimit(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	for i := 0; i < user.RankingLimit+5; i++ {
		usr := testutil.CreateUser(t, repo, "U", "u@hatomed.ac.jp", "hatomed", "")
		if _, err := repo.AddUserPoints(ctx, usr.ID, i); err != nil {
			t.Fatalf("AddUserPoints() failed: %v", err)
		}
	}

	entries, err := svc.Rankings(ctx, user.ScopeNational, "")
	if err != nil {
		t.Fatalf("Rankings() failed: %v", err)
	}
	if len(entries) != user.RankingLimit {
		t.Errorf("Rankings() returned %d entries; want %d", len(entries), user.RankingLimit)
	}
	// the lowest scorers fall off the board
	if entries[0].Points != user.RankingLimit+4 {
		t.Errorf("entries[0].Points = %d; want %d", entries[0].Points, user.RankingLimit+4)
	}
}

func Test_service_ResetPassword(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Saburo", "saburo@hatomed.ac.jp", "hatomed", "old-Passw0rd!")

	sentBefore := sentMessagesCount()
	if err := svc.RequestPasswordReset(ctx, usr.Email); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	if sentMessagesCount() != sentBefore+1 {
		t.Fatal("RequestPasswordReset() did not send an email")
	}

	if err := svc.RequestPasswordReset(ctx, "ghost@hatomed.ac.jp"); err != user.ErrNotFound {
		t.Errorf("RequestPasswordReset() err = %v; want ErrNotFound", err)
	}

	rp := user.ResetUserPassword{
		Token:           "bad-token",
		UID:             user.EncodeUID(usr),
		Password:        "new-Passw0rd!",
		PasswordConfirm: "new-Passw0rd!",
	}
	if err := svc.ResetPassword(ctx, rp); err == nil {
		t.Error("ResetPassword() passed with an invalid token")
	}
}

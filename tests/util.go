package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/medshare/backend/core/post"
	"github.com/medshare/backend/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	nickname, email, universityID, pwd string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Nickname:     nickname,
		Email:        email,
		UniversityID: universityID,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreatePost(
	t *testing.T,
	repo post.Repository,
	authorID, universityID, year, typ, title string,
	files []post.File,
	createdAt ...time.Time,
) post.Post {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p := post.Post{
		UniversityID: universityID,
		Year:         year,
		Type:         typ,
		Title:        title,
		Subject:      "解剖学",
		Files:        files,
		AuthorID:     authorID,
		CreatedAt:    tstamp,
	}
	p, err := repo.CreatePost(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}
	return p
}

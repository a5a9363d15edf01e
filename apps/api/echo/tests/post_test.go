package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	. "github.com/medshare/backend/apps/api/echo"
	"github.com/medshare/backend/core/post"
	testutil "github.com/medshare/backend/tests"
)

func Test_postApi_create(t *testing.T) {
	app := setup(t)

	author := testutil.CreateUser(t, usrRepo, "Taro", "taro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	token := getToken(t, author)

	body := marchallObj(t, post.NewPost{
		UniversityID: "tokyo",
		Year:         "2",
		Type:         post.TypeExam,
		Title:        "解剖学 過去問",
		Subject:      "解剖学",
		Files: []post.File{
			{Name: "a.jpg", Data: "data:image/jpeg;base64,xxx"},
			{Name: "b.jpg", Data: "data:image/jpeg;base64,yyy"},
		},
	})

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/posts", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("empty payload", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/posts", token, marchallObj(t, struct{}{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"university_id": "this field is required",
				"year":          "this field is required",
				"type":          "this field is required",
				"title":         "this field is required",
				"subject":       "this field is required",
			}),
		}, rec)
	})

	t.Run("happy path awards points", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/posts", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
		}
		var res PostCreatedResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if res.EarnedPoints != 21 {
			t.Errorf("earned_points = %d; want 21", res.EarnedPoints)
		}
		if res.Post.AuthorID != author.ID {
			t.Errorf("author_id = %q; want %q", res.Post.AuthorID, author.ID)
		}

		usr, err := usrSvc.GetByID(context.Background(), author.ID)
		if err != nil {
			t.Fatalf("GetByID() failed: %v", err)
		}
		if usr.Points != 21 {
			t.Errorf("author points = %d; want 21", usr.Points)
		}
	})
}

func Test_postApi_query(t *testing.T) {
	app := setup(t)

	author := testutil.CreateUser(t, usrRepo, "Taro", "taro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	token := getToken(t, author)

	now := time.Now().UTC()
	exam := testutil.CreatePost(t, postRepo, author.ID, "tokyo", "2", post.TypeExam, "過去問", nil, now.Add(-time.Hour))
	info := testutil.CreatePost(t, postRepo, author.ID, "tokyo", "2", post.TypeInfo, "授業情報", nil, now)
	testutil.CreatePost(t, postRepo, author.ID, "kyoto", "2", post.TypeExam, "他大学", nil, now)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/posts?university=tokyo&year=2", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "newest first", path: "/v1/posts?university=tokyo&year=2", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, info, exam),
		},
		{
			name: "type filter", path: "/v1/posts?university=tokyo&year=2&type=" + post.TypeExam, token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, exam),
		},
		{
			name: "no match", path: "/v1/posts?university=tokyo&year=6", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, []post.Post{}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_postApi_ownership(t *testing.T) {
	app := setup(t)

	author := testutil.CreateUser(t, usrRepo, "Taro", "taro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	other := testutil.CreateUser(t, usrRepo, "Jiro", "jiro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	files := []post.File{{Name: "a.jpg", Data: "data:image/jpeg;base64,xxx"}}
	p := testutil.CreatePost(t, postRepo, author.ID, "tokyo", "2", post.TypeExam, "過去問", files)

	updateBody := []byte(`{"title": "改訂版"}`)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})
	notFound := marchallObj(t, httpErr{Error: "post not found"})

	tests := []httpTest{
		{
			name: "update by non-owner", method: http.MethodPut, path: "/v1/posts/" + p.ID, body: updateBody,
			token: getToken(t, other), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "delete by non-owner", method: http.MethodDelete, path: "/v1/posts/" + p.ID,
			token: getToken(t, other), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "update unknown post", method: http.MethodPut, path: "/v1/posts/b2c7a7e0-0000-0000-0000-000000000000", body: updateBody,
			token: getToken(t, other), wantCode: http.StatusNotFound, wantData: notFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("owner can update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/posts/"+p.ID, getToken(t, author), updateBody)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
		}
		var got post.Post
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.Title != "改訂版" {
			t.Errorf("title = %q; want %q", got.Title, "改訂版")
		}
		if got.EditedAt == nil {
			t.Error("edited_at was not set")
		}
		if len(got.Files) != 1 {
			t.Errorf("files = %+v; want the attachment kept on a title-only update", got.Files)
		}
	})

	t.Run("owner can delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/posts/"+p.ID, getToken(t, author))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_postApi_likes(t *testing.T) {
	app := setup(t)

	author := testutil.CreateUser(t, usrRepo, "Taro", "taro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	liker := testutil.CreateUser(t, usrRepo, "Jiro", "jiro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	p := testutil.CreatePost(t, postRepo, author.ID, "tokyo", "2", post.TypeExam, "過去問", nil)

	token := getToken(t, liker)
	likePath := fmt.Sprintf("/v1/posts/%s/like", p.ID)

	tests := []httpTest{
		{name: "like", wantCode: http.StatusOK, wantData: marchallObj(t, LikeResponse{Liked: true, Likes: 1})},
		{name: "unlike restores state", wantCode: http.StatusOK, wantData: marchallObj(t, LikeResponse{Liked: false, Likes: 0})},
		{name: "like again", wantCode: http.StatusOK, wantData: marchallObj(t, LikeResponse{Liked: true, Likes: 1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, likePath, token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("liked post list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/posts/liked", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, LikedPostsResponse{PostIDs: []string{p.ID}}),
		}, rec)
	})

	t.Run("unknown post", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/posts/b2c7a7e0-0000-0000-0000-000000000000/like", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "post not found"}),
		}, rec)
	})
}

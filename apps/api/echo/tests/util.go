package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/medshare/backend/apps/api/echo"
	"github.com/medshare/backend/core"
	"github.com/medshare/backend/core/post"
	"github.com/medshare/backend/core/quiz"
	"github.com/medshare/backend/core/user"
	emailsvc "github.com/medshare/backend/services/email"
	logsvc "github.com/medshare/backend/services/logger"
	inmemdb "github.com/medshare/backend/storage/database/inmem"
)

var (
	usrRepo  user.Repository
	postRepo post.Repository
	usrSvc   user.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

// stubCompleter fakes the AI provider.
type stubCompleter struct {
	text string
	err  error
}

func (c *stubCompleter) Complete(ctx context.Context, prompt string, imageURLs []string) (string, error) {
	return c.text, c.err
}

func setup(t *testing.T, completer ...quiz.Completer) Server {
	t.Helper()

	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	postRepo = inmemdb.NewPostRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc = user.NewServiceMock(usrRepo, mailSvc)
	postSvc := post.NewService(postRepo, usrSvc)

	var comp quiz.Completer = &stubCompleter{}
	if len(completer) > 0 {
		comp = completer[0]
	}
	quizSvc := quiz.NewService(comp)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
			UserSvc:        usrSvc,
			PostSvc:        postSvc,
			QuizSvc:        quizSvc,
			SignalShutdown: func() {},
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

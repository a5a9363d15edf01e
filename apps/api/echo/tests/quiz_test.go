package tests

import (
	"context"
	"net/http"
	"testing"

	. "github.com/medshare/backend/apps/api/echo"
	"github.com/medshare/backend/core/quiz"
	testutil "github.com/medshare/backend/tests"
)

const modelOutput = `問1: 心臓の刺激伝導系で最初に興奮する部位はどれか。
A. 洞房結節
B. 房室結節
C. ヒス束
D. プルキンエ線維
解答: A

問2: 僧帽弁は心臓のどの部位に位置するか。
A. 右心房と右心室の間
B. 左心房と左心室の間
C. 右心室と肺動脈の間
D. 左心室と大動脈の間
解答: B`

func generateBody(t *testing.T) []byte {
	return marchallObj(t, quiz.GenerateRequest{
		Type: quiz.TypeMultiple,
		Materials: []quiz.Material{
			{Name: "notes.jpg", Data: "data:image/jpeg;base64,xxx"},
		},
	})
}

func Test_quizApi_generate(t *testing.T) {
	app := setup(t, &stubCompleter{text: modelOutput})

	usr := testutil.CreateUser(t, usrRepo, "Taro", "taro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	token := getToken(t, usr)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/quiz/generate", generateBody(t))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("empty payload", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/generate", token, marchallObj(t, struct{}{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"type":      "this field is required",
				"materials": "this field is required",
			}),
		}, rec)
	})

	t.Run("happy path grants bonus", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/generate", token, generateBody(t))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, QuizResponse{Questions: []quiz.Question{
				{
					Type:     quiz.TypeMultiple,
					Number:   1,
					Question: "心臓の刺激伝導系で最初に興奮する部位はどれか。",
					Choices:  []string{"A. 洞房結節", "B. 房室結節", "C. ヒス束", "D. プルキンエ線維"},
					Answer:   "A",
				},
				{
					Type:     quiz.TypeMultiple,
					Number:   2,
					Question: "僧帽弁は心臓のどの部位に位置するか。",
					Choices:  []string{"A. 右心房と右心室の間", "B. 左心房と左心室の間", "C. 右心室と肺動脈の間", "D. 左心室と大動脈の間"},
					Answer:   "B",
				},
			}}),
		}, rec)

		// the bonus rides on the next post
		earned, err := usrSvc.AwardPostPoints(context.Background(), usr.ID, 0)
		if err != nil {
			t.Fatalf("AwardPostPoints() failed: %v", err)
		}
		if earned != 6 {
			t.Errorf("earned = %d; want 6 (base + AI bonus)", earned)
		}
	})
}

func Test_quizApi_generateUpstreamDown(t *testing.T) {
	app := setup(t, &stubCompleter{err: quiz.ErrUnavailable})

	usr := testutil.CreateUser(t, usrRepo, "Taro", "taro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/generate", token, generateBody(t))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadGateway,
		wantData: marchallObj(t, httpErr{Error: "AI provider is unavailable, try again later"}),
	}, rec)

	// no bonus on failure
	earned, err := usrSvc.AwardPostPoints(context.Background(), usr.ID, 0)
	if err != nil {
		t.Fatalf("AwardPostPoints() failed: %v", err)
	}
	if earned != 1 {
		t.Errorf("earned = %d; want 1", earned)
	}
}

func Test_quizApi_generateGarbageOutput(t *testing.T) {
	app := setup(t, &stubCompleter{text: "すみません、問題を作成できませんでした。"})

	usr := testutil.CreateUser(t, usrRepo, "Taro", "taro@g.ecc.u-tokyo.ac.jp", "tokyo", "")
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/generate", token, generateBody(t))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadGateway,
		wantData: marchallObj(t, httpErr{Error: "AI provider is unavailable, try again later"}),
	}, rec)
}

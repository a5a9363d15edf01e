package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medshare/backend/core/quiz"
	"github.com/medshare/backend/core/user"
)

type quizApi struct {
	svc     quiz.Service
	userSvc user.Service
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc quiz.Service, userSvc user.Service) {
	api := quizApi{svc: svc, userSvc: userSvc}

	qg := g.Group("/quiz", jwt)
	qg.POST("/generate", api.generate)
}

func (api *quizApi) generate(ctx echo.Context) error {
	var data quiz.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	questions, err := api.svc.Generate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating quiz")
	}

	// flag the bonus; it is applied on the user's next post
	if err := api.userSvc.GrantQuizBonus(ctx.Request().Context(), claims.Subject); err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "granting quiz bonus"))
	}

	return ctx.JSON(http.StatusOK, QuizResponse{Questions: questions})
}

type QuizResponse struct {
	Questions []quiz.Question `json:"questions"`
}

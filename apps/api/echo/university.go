package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medshare/backend/core/university"
)

func registerUniversityAPI(g *echo.Group) {
	g.GET("/universities", queryUniversities)
}

func queryUniversities(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, university.All())
}

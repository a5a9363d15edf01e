package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medshare/backend/core/post"
)

type postApi struct {
	svc post.Service
}

func registerPostAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc post.Service) {
	api := postApi{svc: svc}

	pg := g.Group("/posts", jwt)
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/liked", api.queryLiked)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
	pg.POST("/:id/like", api.toggleLike)
}

// Handlers

func (api *postApi) query(ctx echo.Context) error {
	filter := new(post.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []post.Post{})
	}

	posts, err := api.svc.Timeline(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying timeline")
	}
	if posts == nil {
		posts = []post.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *postApi) create(ctx echo.Context) error {
	var data post.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	p, earned, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, PostCreatedResponse{Post: p, EarnedPoints: earned})
}

func (api *postApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding post by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *postApi) update(ctx echo.Context) error {
	var data post.UpdatePost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePost")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	p, err := api.svc.Update(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *postApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *postApi) toggleLike(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	liked, likes, err := api.svc.ToggleLike(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling like")
	}
	return ctx.JSON(http.StatusOK, LikeResponse{Liked: liked, Likes: likes})
}

func (api *postApi) queryLiked(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ids, err := api.svc.LikedPostIDs(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying liked posts")
	}
	if ids == nil {
		ids = []string{}
	}
	return ctx.JSON(http.StatusOK, LikedPostsResponse{PostIDs: ids})
}

type (
	PostCreatedResponse struct {
		Post         post.Post `json:"post"`
		EarnedPoints int       `json:"earned_points"`
	}

	LikeResponse struct {
		Liked bool `json:"liked"`
		Likes int  `json:"likes"`
	}

	LikedPostsResponse struct {
		PostIDs []string `json:"post_ids"`
	}
)

package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/article"
	"github.com/trezcool/shule/core/user"
)

type articleApi struct {
	svc      *article.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerArticleAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *article.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := articleApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	read := permMiddleware(userSvc, "articles", "read")
	write := permMiddleware(userSvc, "articles", "write")

	ag := g.Group("/articles", jwt)
	ag.GET("", api.query, read)
	ag.POST("", api.create, write)
	ag.GET("/:id", api.retrieve, read)
	ag.PUT("/:id", api.update, write)
	ag.DELETE("/:id", api.destroy, write)

	rg := g.Group("/recitations", jwt)
	rg.POST("", api.assignRecitation, write)
	rg.GET("", api.queryRecitations, read)
	// students complete their own recitations; the read permission suffices
	rg.POST("/:id/complete", api.completeRecitation, read)
}

// Handlers

func (api *articleApi) create(ctx echo.Context) error {
	var data article.NewArticle
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewArticle")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating article")
	}
	return respondCreated(ctx, a)
}

func (api *articleApi) query(ctx echo.Context) error {
	filter := new(article.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondOK(ctx, []article.Article{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	articles, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying articles")
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return respondOK(ctx, articles)
}

func (api *articleApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	a, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding article by ID")
	}
	return respondOK(ctx, a)
}

func (api *articleApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	a, err := api.svc.GetByID(rctx, id)
	if err != nil {
		return errors.Wrap(err, "finding article by ID")
	}

	var data article.UpdateArticle
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateArticle")
	}
	if err := data.Validate(api.validate, a); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err = api.svc.Update(rctx, actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating article")
	}
	return respondOK(ctx, a)
}

func (api *articleApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting article")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *articleApi) assignRecitation(ctx echo.Context) error {
	var data article.NewRecitation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecitation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	r, err := api.svc.AssignRecitation(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "assigning recitation")
	}
	return respondCreated(ctx, r)
}

func (api *articleApi) completeRecitation(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	r, err := api.svc.CompleteRecitation(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "completing recitation")
	}
	return respondOK(ctx, r)
}

// queryRecitations lists recitations: students see their own, teachers and
// admins see the class identified by the class_id query param.
func (api *articleApi) queryRecitations(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	classID, _ := strconv.Atoi(ctx.QueryParam("class_id"))
	records, err := api.svc.QueryRecitations(ctx.Request().Context(), actor, classID)
	if err != nil {
		return errors.Wrap(err, "querying recitations")
	}
	if records == nil {
		records = []article.RecitationRecord{}
	}
	return respondOK(ctx, records)
}

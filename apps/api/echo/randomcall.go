package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/randomcall"
	"github.com/trezcool/shule/core/user"
)

type randomCallApi struct {
	svc      *randomcall.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerRandomCallAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *randomcall.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := randomCallApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	rg := g.Group("/random", jwt)
	read := permMiddleware(userSvc, "random", "read")
	write := permMiddleware(userSvc, "random", "write")

	rg.POST("/select", api.selectStudents, write)
	rg.POST("/groups", api.selectGroups, write)
	rg.GET("/students/:classId", api.roster, read)
	rg.GET("/history/:classId", api.history, read)
}

// Handlers

func (api *randomCallApi) selectStudents(ctx echo.Context) error {
	var data randomcall.SelectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	selected, err := api.svc.SelectStudents(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "selecting students")
	}
	return respondOK(ctx, selected)
}

func (api *randomCallApi) selectGroups(ctx echo.Context) error {
	var data randomcall.GroupRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GroupRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	groups, err := api.svc.SelectGroups(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "selecting groups")
	}
	return respondOK(ctx, groups)
}

func (api *randomCallApi) roster(ctx echo.Context) error {
	classID, err := intParam(ctx, "classId")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	students, err := api.svc.Roster(ctx.Request().Context(), actor, classID)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	if students == nil {
		students = []user.User{}
	}
	return respondOK(ctx, students)
}

func (api *randomCallApi) history(ctx echo.Context) error {
	classID, err := intParam(ctx, "classId")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	paging := new(Paging)
	paging.Bind(ctx)
	logs, err := api.svc.History(ctx.Request().Context(), actor, classID, paging.Limit)
	if err != nil {
		return errors.Wrap(err, "querying call history")
	}
	if logs == nil {
		logs = []randomcall.CallLog{}
	}
	return respondOK(ctx, logs)
}

package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/user"
)

type classRoomApi struct {
	svc      *classroom.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerClassRoomAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *classroom.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := classRoomApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	cg := g.Group("/classes", jwt)
	read := permMiddleware(userSvc, "classes", "read")
	write := permMiddleware(userSvc, "classes", "write")

	cg.GET("", api.query, read)
	cg.POST("", api.create, write)
	cg.GET("/:id", api.retrieve, read)
	cg.PUT("/:id", api.update, write)
	cg.DELETE("/:id", api.destroy, write)

	cg.GET("/:id/students", api.roster, read)
	cg.POST("/:id/students", api.enroll, write)
	cg.DELETE("/:id/students/:studentID", api.unenroll, write)
}

// Handlers

func (api *classRoomApi) create(ctx echo.Context) error {
	var data classroom.NewClassRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassRoom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	class, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return respondCreated(ctx, class)
}

func (api *classRoomApi) query(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	classes, err := api.svc.QueryForUser(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []classroom.ClassRoom{}
	}
	return respondOK(ctx, classes)
}

func (api *classRoomApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	class, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}
	return respondOK(ctx, class)
}

func (api *classRoomApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	class, err := api.svc.GetByID(rctx, id)
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}

	var data classroom.UpdateClassRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassRoom")
	}
	if err := data.Validate(api.validate, class); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	class, err = api.svc.Update(rctx, actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return respondOK(ctx, class)
}

func (api *classRoomApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classRoomApi) roster(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	students, err := api.svc.Roster(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	if students == nil {
		students = []user.User{}
	}
	return respondOK(ctx, students)
}

func (api *classRoomApi) enroll(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data classroom.EnrollStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.Enroll(ctx.Request().Context(), actor, id, data.StudentID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return respondCreated(ctx, m)
}

func (api *classRoomApi) unenroll(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	studentID, err := intParam(ctx, "studentID")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Unenroll(ctx.Request().Context(), actor, id, studentID); err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

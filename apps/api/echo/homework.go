package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/homework"
	"github.com/trezcool/shule/core/user"
)

type homeworkApi struct {
	svc      *homework.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerHomeworkAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *homework.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := homeworkApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	hg := g.Group("/homework", jwt)
	read := permMiddleware(userSvc, "homework", "read")
	write := permMiddleware(userSvc, "homework", "write")

	hg.POST("/create", api.createAssignment, write)
	hg.GET("/teacher", api.queryAssignments, read)
	hg.GET("/student", api.queryAssignments, read)
	hg.GET("/:id/submissions", api.listSubmissions, read)
	hg.GET("/submissions", api.listOwnSubmissions, read)

	hg.POST("/submit/:id", api.submit, write)
	hg.POST("/grade/:id", api.grade, write)
	hg.POST("/return/:id", api.returnSubmission, write)
}

// Handlers

func (api *homeworkApi) createAssignment(ctx echo.Context) error {
	var data homework.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	assignment, err := api.svc.CreateAssignment(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return respondCreated(ctx, assignment)
}

// queryAssignments lists the assignments of the classes visible to the actor:
// owned classes for teachers, enrolled classes for students, all for admins.
func (api *homeworkApi) queryAssignments(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	assignments, err := api.svc.QueryAssignments(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []homework.Assignment{}
	}
	return respondOK(ctx, assignments)
}

func (api *homeworkApi) submit(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data homework.SubmitHomework
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitHomework")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Submit(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "submitting homework")
	}
	return respondCreated(ctx, s)
}

func (api *homeworkApi) grade(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data homework.GradeHomework
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeHomework")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Grade(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return respondOK(ctx, s)
}

func (api *homeworkApi) returnSubmission(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Return(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "returning submission")
	}
	return respondOK(ctx, s)
}

func (api *homeworkApi) listSubmissions(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	submissions, err := api.svc.ListSubmissions(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	if submissions == nil {
		submissions = []homework.Submission{}
	}
	return respondOK(ctx, submissions)
}

func (api *homeworkApi) listOwnSubmissions(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	submissions, err := api.svc.ListOwnSubmissions(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing own submissions")
	}
	if submissions == nil {
		submissions = []homework.Submission{}
	}
	return respondOK(ctx, submissions)
}

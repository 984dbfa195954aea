package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
)

type attendanceApi struct {
	svc      *attendance.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *attendance.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	ag := g.Group("/attendance", jwt)
	read := permMiddleware(userSvc, "attendance", "read")
	write := permMiddleware(userSvc, "attendance", "write")

	ag.GET("", api.querySessions, read)
	ag.POST("/generate-qrcode", api.generateQRCode, read)
	ag.GET("/sessions/:id", api.retrieveSession, read)
	ag.GET("/sessions/:id/qrcode.png", api.qrCodePNG, read)
	ag.GET("/sessions/:id/records", api.listRecords, read)
	ag.GET("/stats/:classId", api.classStats, read)

	// students scan; their role carries the write permission only
	ag.POST("/scan/:token", api.scan, write)
}

// Handlers

func (api *attendanceApi) generateQRCode(ctx echo.Context) error {
	var data attendance.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	session, err := api.svc.CreateSession(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return respondCreated(ctx, SessionResponse{
		Session: session,
		ScanURL: api.svc.ScanURL(session),
	})
}

func (api *attendanceApi) retrieveSession(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	session, err := api.svc.GetSession(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "finding session by ID")
	}
	return respondOK(ctx, SessionResponse{
		Session: session,
		ScanURL: api.svc.ScanURL(session),
	})
}

func (api *attendanceApi) qrCodePNG(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	session, err := api.svc.GetSession(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "finding session by ID")
	}
	png, err := api.svc.QRCodePNG(session)
	if err != nil {
		return errors.Wrap(err, "encoding QR code")
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}

func (api *attendanceApi) scan(ctx echo.Context) error {
	var data attendance.ScanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScanRequest")
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, already, err := api.svc.Scan(ctx.Request().Context(), ctx.Param("token"), actor, data)
	if err != nil {
		return errors.Wrap(err, "scanning session")
	}
	if already {
		return respond(ctx, http.StatusOK, "attendance already recorded", rec)
	}
	return respond(ctx, http.StatusCreated, "attendance recorded", rec)
}

func (api *attendanceApi) querySessions(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sessions, err := api.svc.QuerySessions(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []attendance.Session{}
	}
	return respondOK(ctx, sessions)
}

func (api *attendanceApi) listRecords(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	records, err := api.svc.ListRecords(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "listing records")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return respondOK(ctx, records)
}

func (api *attendanceApi) classStats(ctx echo.Context) error {
	classID, err := intParam(ctx, "classId")
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	stats, err := api.svc.ClassStats(ctx.Request().Context(), actor, classID)
	if err != nil {
		return errors.Wrap(err, "querying class stats")
	}
	return respondOK(ctx, stats)
}

type SessionResponse struct {
	attendance.Session
	ScanURL string `json:"scan_url"`
}

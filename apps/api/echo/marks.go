package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/marks"
	"github.com/trezcool/vidyalaya/core/user"
	"github.com/trezcool/vidyalaya/services/report"
)

var errNoStudentEmail = core.NewFieldError("email", "This student does not have an email address")

type marksApi struct {
	svc      marks.Service
	users    user.Service
	mailer   core.EmailService
	conf     *core.Config
	validate *validator.Validate
}

func registerMarksAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := marksApi{
		svc:      s.deps.MarksSvc,
		users:    s.deps.UserSvc,
		mailer:   s.deps.Mailer,
		conf:     s.deps.Conf,
		validate: s.deps.Validate,
	}
	staff := roleMiddleware(user.RoleAdmin, user.RoleTeacher)

	mg := g.Group("/marks", jwt, staff)
	mg.GET("/sheet", api.sheet)
	mg.PUT("", api.save)

	g.GET("/students/:id/marks", api.studentMarks, jwt, staff)
	g.GET("/students/:id/marks/history", api.history, jwt, staff)

	// reports
	g.GET("/reports/marks.xlsx", api.classMarksWorkbook, jwt, staff)
	g.GET("/students/:id/report-card.pdf", api.reportCard, jwt)
	g.POST("/students/:id/report-card/email", api.emailReportCard, jwt, staff)
}

// Handlers

func (api *marksApi) sheet(ctx echo.Context) error {
	studentID := ctx.QueryParam("student_id")
	if studentID == "" {
		return core.NewFieldError("student_id", "Please select a student")
	}
	sheet, err := api.svc.Sheet(ctx.Request().Context(), getContextPrincipal(ctx), studentID, ctx.QueryParam("exam_type"))
	if err != nil {
		return errors.Wrap(err, "getting marks sheet")
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *marksApi) save(ctx echo.Context) error {
	var data marks.SaveMarks
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveMarks")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sheet, err := api.svc.Save(ctx.Request().Context(), getContextPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "saving marks")
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *marksApi) studentMarks(ctx echo.Context) error {
	ms, err := api.svc.StudentMarks(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student marks")
	}
	if ms == nil {
		ms = []marks.Mark{}
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *marksApi) history(ctx echo.Context) error {
	hist, err := api.svc.History(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting marks history")
	}
	if hist == nil {
		hist = []marks.History{}
	}
	return ctx.JSON(http.StatusOK, hist)
}

func (api *marksApi) classMarksWorkbook(ctx echo.Context) error {
	cs := ctx.QueryParam("class_section")
	if cs == "" {
		return core.NewFieldError("class_section", "Please select class-section")
	}
	cm, err := api.svc.ClassMarks(ctx.Request().Context(), getContextPrincipal(ctx), cs, ctx.QueryParam("exam_type"))
	if err != nil {
		return errors.Wrap(err, "getting class marks")
	}

	buf, err := report.MarksWorkbook(cm)
	if err != nil {
		return errors.Wrap(err, "writing marks workbook")
	}
	setAttachment(ctx, fmt.Sprintf("marks-%s-%s.xlsx", cm.ClassSection, cm.ExamType))
	return ctx.Blob(http.StatusOK, report.XLSXContentType, buf.Bytes())
}

func (api *marksApi) reportCard(ctx echo.Context) error {
	rc, err := api.svc.ReportCard(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting report card")
	}

	var buf bytes.Buffer
	if err := report.ReportCardPDF(&buf, api.conf.AppName, rc); err != nil {
		return errors.Wrap(err, "writing report card")
	}
	setAttachment(ctx, reportCardFilename(rc))
	return ctx.Blob(http.StatusOK, report.PDFContentType, buf.Bytes())
}

func (api *marksApi) emailReportCard(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	rc, err := api.svc.ReportCard(reqCtx, getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting report card")
	}
	st, err := api.users.GetStudent(reqCtx, rc.Student.ID)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	if st.Email == "" {
		return errNoStudentEmail
	}

	var buf bytes.Buffer
	if err := report.ReportCardPDF(&buf, api.conf.AppName, rc); err != nil {
		return errors.Wrap(err, "writing report card")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject:      "Report card of " + st.Name,
		TemplateName: "report_card",
		TemplateData: map[string]interface{}{
			"Name":              st.Name,
			"AdmissionID":       st.AdmissionID,
			"ClassSection":      st.ClassSection,
			"OverallPercentage": rc.Summary.OverallPercentage,
		},
	}
	if err := msg.Attach(&buf, reportCardFilename(rc), report.PDFContentType); err != nil {
		return errors.Wrap(err, "attaching report card")
	}
	api.mailer.SendMessages(msg)

	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The report card will be sent to " + st.Email})
}

func reportCardFilename(rc marks.ReportCard) string {
	return "report-card-" + strings.ReplaceAll(rc.Student.AdmissionID, "/", "-") + ".pdf"
}

func setAttachment(ctx echo.Context, filename string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
}

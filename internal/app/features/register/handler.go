// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"github.com/dalemusser/splereg/internal/app/system/auditlog"
	"github.com/dalemusser/splereg/internal/app/system/formutil"
	"github.com/dalemusser/splereg/internal/app/system/intake"
	"github.com/dalemusser/splereg/internal/app/system/limits"
	"github.com/dalemusser/splereg/internal/app/system/mediahost"
	"github.com/dalemusser/splereg/internal/app/system/ratelimit"
	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Submitter runs the intake pipeline for one submission.
type Submitter interface {
	Submit(ctx context.Context, sub intake.Submission) (models.Registration, error)
}

type Handler struct {
	Intake    Submitter
	AuditLog  *auditlog.Logger
	ErrLog    *uierrors.ErrorLogger
	Limiter   *ratelimit.Limiter // per client IP; nil disables
	MaxUpload int64
	EventName string
	Log       *zap.Logger
}

func NewHandler(
	svc Submitter,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	limiter *ratelimit.Limiter,
	maxUploadMB int,
	eventName string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Intake:    svc,
		AuditLog:  audit,
		ErrLog:    errLog,
		Limiter:   limiter,
		MaxUpload: limits.UploadBytes(maxUploadMB),
		EventName: eventName,
		Log:       logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type formData struct {
	formutil.Base
	intake.Applicant
	EventName   string
	Categories  []string
	MaxUploadMB int64
}

type successData struct {
	formutil.Base
	EventName string
	FullName  string
}

func (h *Handler) newForm(r *http.Request, a intake.Applicant) formData {
	data := formData{
		Applicant:   a,
		EventName:   h.EventName,
		Categories:  models.Categories,
		MaxUploadMB: h.MaxUpload >> 20,
	}
	formutil.SetBase(&data.Base, r, "Register", "/")
	return data
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, a intake.Applicant, msg string) {
	data := h.newForm(r, a)
	data.SetError(msg)
	templates.Render(w, r, "register_form", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeForm renders an empty registration form.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register_form", h.newForm(r, intake.Applicant{}))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSubmit runs the intake pipeline and redirects to the success page.
// Failures re-render the form with the entered values; the signature and
// files must be provided again.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(auditlog.ClientIP(r)) {
		w.WriteHeader(http.StatusTooManyRequests)
		h.renderForm(w, r, intake.Applicant{}, "Too many submissions from your network. Please wait a few minutes and try again.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(limits.MultipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			h.renderForm(w, r, intake.Applicant{}, "Your files are too large. Please attach smaller files and try again.")
			return
		}
		h.ErrLog.LogBadRequest(w, r, "parse registration form failed", err, "Invalid form data.", "/")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	a := applicantFrom(r)

	sig, err := intake.DecodeSignature(r.FormValue("signature"))
	if err != nil {
		h.fail(w, r, a, err)
		return
	}

	files, release, err := mediahost.FromMultipart(r.MultipartForm.File["attachments"])
	defer release()
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "open attachment failed", err, "One of your files could not be read.", "/")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "registration submit")
	defer cancel()

	reg, err := h.Intake.Submit(ctx, intake.Submission{
		Applicant:   a,
		Signature:   sig,
		Attachments: files,
	})
	if err != nil {
		h.fail(w, r, a, err)
		return
	}

	h.AuditLog.RegistrationSubmitted(r.Context(), r, reg.ID, len(reg.Attachments))
	http.Redirect(w, r, "/register/success?name="+url.QueryEscape(reg.FullName()), http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, a intake.Applicant, err error) {
	kind := apperr.KindOf(err)
	if kind != apperr.ValidationFailure {
		h.Log.Warn("registration submit failed",
			zap.String("kind", kind.String()),
			zap.String("email", a.Email),
			zap.Error(err))
	}
	h.AuditLog.SubmissionFailed(r.Context(), r, kind.String(), err.Error())
	h.renderForm(w, r, a, apperr.UserMessage(err))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register/success                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSuccess renders the confirmation view. "New registration" links to
// GET /, which starts from an empty form.
func (h *Handler) ServeSuccess(w http.ResponseWriter, r *http.Request) {
	data := successData{
		EventName: h.EventName,
		FullName:  strings.TrimSpace(r.URL.Query().Get("name")),
	}
	formutil.SetBase(&data.Base, r, "Registration received", "/")
	templates.Render(w, r, "register_success", data)
}

func applicantFrom(r *http.Request) intake.Applicant {
	return intake.Applicant{
		Surname:    r.FormValue("surname"),
		FirstName:  r.FormValue("firstname"),
		MiddleName: r.FormValue("midname"),
		Email:      r.FormValue("email"),
		Contact:    r.FormValue("contact"),
		WhatsApp:   r.FormValue("whatsapp"),
		University: r.FormValue("university"),
		Degree:     r.FormValue("degree"),
		Category:   r.FormValue("category"),
	}
}

// Package intake turns an applicant's submission into a stored
// registration: validate, upload the signature, upload each attachment
// in order, then write the record against a confirmation deadline.
package intake

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	registrationstore "github.com/dalemusser/splereg/internal/app/store/registrations"
	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"github.com/dalemusser/splereg/internal/app/system/inputval"
	"github.com/dalemusser/splereg/internal/app/system/mediahost"
	"github.com/dalemusser/splereg/internal/domain/models"
	"go.uber.org/zap"
)

// Writer persists a composed registration.
type Writer interface {
	Create(ctx context.Context, r models.Registration) (models.Registration, error)
}

// Applicant is the text part of the form.
type Applicant struct {
	Surname    string `validate:"required" label:"Surname"`
	FirstName  string `validate:"required" label:"First name"`
	MiddleName string
	Email      string `validate:"required,email" label:"Email"`
	Contact    string `validate:"required" label:"Contact number"`
	WhatsApp   string
	University string `validate:"required" label:"University"`
	Degree     string `validate:"required" label:"Degree"`
	Category   string `validate:"required,category" label:"Category"`
}

// Submission is one press of the submit button.
type Submission struct {
	Applicant
	Signature   []byte
	Attachments []mediahost.Payload
}

// Config holds the folders and the write deadline.
type Config struct {
	SignatureFolder  string
	AttachmentFolder string
	// Timeout bounds how long Submit waits for the write to confirm.
	Timeout time.Duration
}

// Service runs the intake pipeline.
type Service struct {
	uploader mediahost.Uploader
	writer   Writer
	cfg      Config
	log      *zap.Logger
}

// New creates an intake Service.
func New(u mediahost.Uploader, w Writer, cfg Config, logger *zap.Logger) *Service {
	if cfg.SignatureFolder == "" {
		cfg.SignatureFolder = "sple-signatures"
	}
	if cfg.AttachmentFolder == "" {
		cfg.AttachmentFolder = "sple-attachments"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Service{uploader: u, writer: w, cfg: cfg, log: logger}
}

// Validate checks required fields and the signature. It performs no I/O.
// Applicant fields are expected to be trimmed already.
func Validate(sub Submission) error {
	if res := inputval.Validate(sub.Applicant); res.HasErrors() {
		return apperr.Validation("validate", res.First())
	}
	if len(sub.Signature) == 0 {
		return apperr.Validation("validate", "Please provide your signature.")
	}
	return nil
}

// Submit runs the pipeline. On success the stored record is returned.
//
// A failed upload aborts the remaining uploads and the write; objects
// already stored are left in place. When the write has not confirmed
// within the configured timeout Submit returns a WriteTimeout error, but
// the write keeps running and may still land.
func (s *Service) Submit(ctx context.Context, sub Submission) (models.Registration, error) {
	reg, err := s.submit(ctx, sub)
	submissionsTotal.WithLabelValues(resultLabel(err)).Inc()
	return reg, err
}

func (s *Service) submit(ctx context.Context, sub Submission) (models.Registration, error) {
	sub.Applicant = trimApplicant(sub.Applicant)
	if err := Validate(sub); err != nil {
		return models.Registration{}, err
	}

	s.log.Info("uploading signature", zap.String("email", sub.Email))
	sigRef, err := s.uploader.Upload(ctx, mediahost.Payload{
		Name:     "signature.png",
		MIMEType: "image/png",
		Size:     int64(len(sub.Signature)),
		Body:     bytes.NewReader(sub.Signature),
	}, s.cfg.SignatureFolder)
	if err != nil {
		s.log.Warn("signature upload failed", zap.Error(err))
		return models.Registration{}, asUploadErr("upload signature", err)
	}
	stored := []string{sigRef.PublicID}

	atts := make([]models.Attachment, 0, len(sub.Attachments))
	for i, p := range sub.Attachments {
		s.log.Info("uploading attachment",
			zap.Int("index", i+1),
			zap.Int("of", len(sub.Attachments)),
			zap.String("name", p.Name))
		ref, err := s.uploader.Upload(ctx, p, s.cfg.AttachmentFolder)
		if err != nil {
			s.log.Warn("attachment upload failed; leaving stored objects in place",
				zap.String("name", p.Name),
				zap.Strings("orphaned_public_ids", stored),
				zap.Error(err))
			return models.Registration{}, asUploadErr("upload attachment", err)
		}
		stored = append(stored, ref.PublicID)
		atts = append(atts, AttachmentFrom(ref))
	}

	rec := models.Registration{
		Surname:     sub.Surname,
		FirstName:   sub.FirstName,
		MiddleName:  sub.MiddleName,
		Email:       sub.Email,
		Contact:     sub.Contact,
		WhatsApp:    sub.WhatsApp,
		University:  sub.University,
		Degree:      sub.Degree,
		Category:    sub.Category,
		Status:      models.StatusPending,
		Attachments: atts,
		Signature: &models.Signature{
			URL:      sigRef.URL,
			PublicID: sigRef.PublicID,
			Format:   sigRef.Format,
			Size:     sigRef.Bytes,
		},
	}
	return s.write(ctx, rec)
}

type writeResult struct {
	reg models.Registration
	err error
}

// write races the store write against the deadline. The write runs on a
// context that is not cancelled with the request.
func (s *Service) write(ctx context.Context, rec models.Registration) (models.Registration, error) {
	done := make(chan writeResult, 1)
	wctx := context.WithoutCancel(ctx)
	go func() {
		reg, err := s.writer.Create(wctx, rec)
		done <- writeResult{reg, err}
	}()

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return models.Registration{}, asWriteErr(res.err)
		}
		s.log.Info("registration stored", zap.String("id", res.reg.ID.Hex()))
		return res.reg, nil
	case <-timer.C:
		s.log.Warn("registration write not confirmed before deadline",
			zap.Duration("timeout", s.cfg.Timeout),
			zap.String("email", rec.Email))
		go func() {
			res := <-done
			if res.err != nil {
				s.log.Error("late registration write failed", zap.Error(res.err))
				return
			}
			s.log.Info("late registration write landed", zap.String("id", res.reg.ID.Hex()))
		}()
		return models.Registration{}, apperr.New(apperr.WriteTimeout, "write registration", "", context.DeadlineExceeded)
	}
}

// AttachmentFrom builds the stored attachment entry from an upload reference.
func AttachmentFrom(ref mediahost.Reference) models.Attachment {
	return models.Attachment{
		Name:     ref.Name,
		MimeType: ref.MIMEType,
		Size:     ref.Bytes,
		URL:      ref.URL,
		PublicID: ref.PublicID,
		Format:   ref.Format,
	}
}

func asUploadErr(op string, err error) error {
	if apperr.KindOf(err) == apperr.UploadFailure {
		return err
	}
	return apperr.Upload(op, "", err)
}

func asWriteErr(err error) error {
	if errors.Is(err, registrationstore.ErrPermissionDenied) {
		return apperr.New(apperr.PermissionDenied, "write registration", "", err)
	}
	return apperr.New(apperr.Unknown, "write registration", "", err)
}

func trimApplicant(a Applicant) Applicant {
	return Applicant{
		Surname:    strings.TrimSpace(a.Surname),
		FirstName:  strings.TrimSpace(a.FirstName),
		MiddleName: strings.TrimSpace(a.MiddleName),
		Email:      strings.TrimSpace(a.Email),
		Contact:    strings.TrimSpace(a.Contact),
		WhatsApp:   strings.TrimSpace(a.WhatsApp),
		University: strings.TrimSpace(a.University),
		Degree:     strings.TrimSpace(a.Degree),
		Category:   strings.TrimSpace(a.Category),
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}

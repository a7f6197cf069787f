// Package editor applies reviewer changes to a registration. It reads
// the record from the reviewer's session cache, never from the database,
// and writes whole fields back (last write wins).
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	registrationstore "github.com/dalemusser/splereg/internal/app/store/registrations"
	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"github.com/dalemusser/splereg/internal/app/system/htmlsanitize"
	"github.com/dalemusser/splereg/internal/app/system/inputval"
	"github.com/dalemusser/splereg/internal/app/system/intake"
	"github.com/dalemusser/splereg/internal/app/system/mediahost"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrIndexOutOfRange is returned by RemoveAt for a bad index.
var ErrIndexOutOfRange = errors.New("attachment index out of range")

// Store is the part of the registration store the editor writes to.
type Store interface {
	SetAttachments(ctx context.Context, id primitive.ObjectID, atts []models.Attachment) error
	ApplyEdit(ctx context.Context, id primitive.ObjectID, e registrationstore.Edit) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// Fields are the editable text fields of a registration.
type Fields struct {
	Surname    string `validate:"required" label:"Surname"`
	FirstName  string `validate:"required" label:"First name"`
	MiddleName string
	Email      string `validate:"omitempty,email" label:"Email"`
	Contact    string
	WhatsApp   string
	University string
	Degree     string
	Category   string // legacy values stay editable
	Type       string `validate:"regtype" label:"Type"`
	Remarks    string
}

// FieldsOf returns the editable fields of r, for prefilling the form.
func FieldsOf(r models.Registration) Fields {
	return Fields{
		Surname:    r.Surname,
		FirstName:  r.FirstName,
		MiddleName: r.MiddleName,
		Email:      r.Email,
		Contact:    r.Contact,
		WhatsApp:   r.WhatsApp,
		University: r.University,
		Degree:     r.Degree,
		Category:   r.Category,
		Type:       r.Type,
		Remarks:    r.Remarks,
	}
}

// Editor applies reviewer changes.
type Editor struct {
	store            Store
	uploader         mediahost.Uploader
	attachmentFolder string
	log              *zap.Logger
}

// New creates an Editor.
func New(store Store, uploader mediahost.Uploader, attachmentFolder string, logger *zap.Logger) *Editor {
	if attachmentFolder == "" {
		attachmentFolder = "sple-attachments"
	}
	return &Editor{store: store, uploader: uploader, attachmentFolder: attachmentFolder, log: logger}
}

// RemoveAt returns a new slice without the element at i, keeping the
// order of the rest. atts is not modified.
func RemoveAt(atts []models.Attachment, i int) ([]models.Attachment, error) {
	if i < 0 || i >= len(atts) {
		return nil, ErrIndexOutOfRange
	}
	out := make([]models.Attachment, 0, len(atts)-1)
	out = append(out, atts[:i]...)
	out = append(out, atts[i+1:]...)
	return out, nil
}

// DeleteAttachment removes the attachment at index from the cached copy
// of the record and writes the whole array back. The cache is updated
// after the write succeeds. The media object itself is kept.
func (e *Editor) DeleteAttachment(ctx context.Context, cache *registry.Cache, id string, index int) (models.Attachment, error) {
	rec, oid, err := lookup(cache, id)
	if err != nil {
		return models.Attachment{}, err
	}
	next, err := RemoveAt(rec.Attachments, index)
	if err != nil {
		return models.Attachment{}, apperr.Validation("delete attachment", "That attachment is no longer listed.")
	}
	if err := e.store.SetAttachments(ctx, oid, next); err != nil {
		return models.Attachment{}, storeErr("delete attachment", err)
	}
	cache.SetAttachments(id, next)
	return rec.Attachments[index], nil
}

// Update writes the text fields and appends newly chosen files to the
// attachment list the cache holds. Files upload sequentially; the first
// failure aborts the remaining uploads and the write. Attachments are
// written only when there are new files. Returns the number of files added.
func (e *Editor) Update(ctx context.Context, cache *registry.Cache, id string, f Fields, files []mediahost.Payload) (int, error) {
	rec, oid, err := lookup(cache, id)
	if err != nil {
		return 0, err
	}
	f = clean(f)
	if err := validate(f); err != nil {
		return 0, err
	}

	edit := registrationstore.Edit{
		Surname:    f.Surname,
		FirstName:  f.FirstName,
		MiddleName: f.MiddleName,
		Email:      f.Email,
		Contact:    f.Contact,
		WhatsApp:   f.WhatsApp,
		University: f.University,
		Degree:     f.Degree,
		Category:   f.Category,
		Type:       f.Type,
		Remarks:    f.Remarks,
	}

	if len(files) > 0 {
		atts := append([]models.Attachment(nil), rec.Attachments...)
		for i, p := range files {
			e.log.Info("uploading attachment",
				zap.String("registration_id", id),
				zap.Int("index", i+1),
				zap.Int("of", len(files)),
				zap.String("name", p.Name))
			ref, err := e.uploader.Upload(ctx, p, e.attachmentFolder)
			if err != nil {
				e.log.Warn("attachment upload failed during edit", zap.String("name", p.Name), zap.Error(err))
				if apperr.KindOf(err) == apperr.UploadFailure {
					return 0, err
				}
				return 0, apperr.Upload("upload attachment", "", err)
			}
			atts = append(atts, intake.AttachmentFrom(ref))
		}
		edit.ReplaceAttachments = true
		edit.Attachments = atts
	}

	if err := e.store.ApplyEdit(ctx, oid, edit); err != nil {
		return 0, storeErr("update registration", err)
	}
	if edit.ReplaceAttachments {
		cache.SetAttachments(id, edit.Attachments)
	}
	return len(files), nil
}

// Delete removes the registration document. Uploaded media is kept.
func (e *Editor) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.New(apperr.NotFound, "delete registration", "", err)
	}
	n, err := e.store.Delete(ctx, oid)
	if err != nil {
		return storeErr("delete registration", err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "delete registration", "", registrationstore.ErrNotFound)
	}
	return nil
}

func lookup(cache *registry.Cache, id string) (models.Registration, primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Registration{}, oid, apperr.New(apperr.NotFound, "lookup", "", err)
	}
	rec, ok := cache.Get(id)
	if !ok {
		return models.Registration{}, oid, apperr.New(apperr.NotFound, "lookup", "", fmt.Errorf("registration %s not cached", id))
	}
	return rec, oid, nil
}

func clean(f Fields) Fields {
	return Fields{
		Surname:    strings.TrimSpace(f.Surname),
		FirstName:  strings.TrimSpace(f.FirstName),
		MiddleName: strings.TrimSpace(f.MiddleName),
		Email:      strings.TrimSpace(f.Email),
		Contact:    strings.TrimSpace(f.Contact),
		WhatsApp:   strings.TrimSpace(f.WhatsApp),
		University: strings.TrimSpace(f.University),
		Degree:     strings.TrimSpace(f.Degree),
		Category:   strings.TrimSpace(f.Category),
		Type:       strings.TrimSpace(f.Type),
		Remarks:    htmlsanitize.PlainText(f.Remarks),
	}
}

func validate(f Fields) error {
	if res := inputval.Validate(f); res.HasErrors() {
		return apperr.Validation("update registration", res.First())
	}
	return nil
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, registrationstore.ErrNotFound):
		return apperr.New(apperr.NotFound, op, "", err)
	case errors.Is(err, registrationstore.ErrPermissionDenied):
		return apperr.New(apperr.PermissionDenied, op, "", err)
	default:
		return apperr.New(apperr.Unknown, op, "", err)
	}
}

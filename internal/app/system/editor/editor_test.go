package editor_test

import (
	"context"
	"strings"
	"testing"

	registrationstore "github.com/dalemusser/splereg/internal/app/store/registrations"
	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"github.com/dalemusser/splereg/internal/app/system/editor"
	"github.com/dalemusser/splereg/internal/app/system/mediahost"
	"github.com/dalemusser/splereg/internal/app/system/mediahost/mediahosttest"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStore struct {
	setCalls  [][]models.Attachment
	edits     []registrationstore.Edit
	deleted   []primitive.ObjectID
	deleteN   int64
	editErr   error
	setAttErr error
}

func (s *fakeStore) SetAttachments(_ context.Context, _ primitive.ObjectID, atts []models.Attachment) error {
	if s.setAttErr != nil {
		return s.setAttErr
	}
	s.setCalls = append(s.setCalls, atts)
	return nil
}

func (s *fakeStore) ApplyEdit(_ context.Context, _ primitive.ObjectID, e registrationstore.Edit) error {
	if s.editErr != nil {
		return s.editErr
	}
	s.edits = append(s.edits, e)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.deleted = append(s.deleted, id)
	return s.deleteN, nil
}

func atts(names ...string) []models.Attachment {
	out := make([]models.Attachment, len(names))
	for i, n := range names {
		out[i] = models.Attachment{Name: n, URL: "https://media.test/" + n}
	}
	return out
}

func names(list []models.Attachment) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Name
	}
	return out
}

func seeded(r models.Registration) *registry.Cache {
	c := registry.NewCache(nil)
	c.Apply([]models.Registration{r})
	return c
}

func baseRecord(attNames ...string) models.Registration {
	return models.Registration{
		ID:          primitive.NewObjectID(),
		Surname:     "Haddad",
		FirstName:   "Sara",
		Email:       "sara@uni.edu",
		Category:    "Student",
		Attachments: atts(attNames...),
	}
}

func TestRemoveAt(t *testing.T) {
	in := atts("a", "b", "c")

	out, err := editor.RemoveAt(in, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(out))
	assert.Equal(t, []string{"a", "b", "c"}, names(in), "input must not change")

	out, err = editor.RemoveAt(in, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(out))

	out, err = editor.RemoveAt(in, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(out))

	_, err = editor.RemoveAt(in, 3)
	assert.ErrorIs(t, err, editor.ErrIndexOutOfRange)
	_, err = editor.RemoveAt(in, -1)
	assert.ErrorIs(t, err, editor.ErrIndexOutOfRange)
}

func TestDeleteAttachment_WritesFullArrayAndUpdatesCache(t *testing.T) {
	rec := baseRecord("a", "b", "c")
	cache := seeded(rec)
	store := &fakeStore{}
	ed := editor.New(store, mediahosttest.New(), "", zap.NewNop())

	removed, err := ed.DeleteAttachment(context.Background(), cache, rec.ID.Hex(), 1)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Name)

	require.Len(t, store.setCalls, 1)
	assert.Equal(t, []string{"a", "c"}, names(store.setCalls[0]))

	got, ok := cache.Get(rec.ID.Hex())
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, names(got.Attachments))
}

func TestDeleteAttachment_StoreFailureLeavesCache(t *testing.T) {
	rec := baseRecord("a", "b")
	cache := seeded(rec)
	store := &fakeStore{setAttErr: registrationstore.ErrPermissionDenied}
	ed := editor.New(store, mediahosttest.New(), "", zap.NewNop())

	_, err := ed.DeleteAttachment(context.Background(), cache, rec.ID.Hex(), 0)
	assert.Equal(t, apperr.PermissionDenied, apperr.KindOf(err))

	got, _ := cache.Get(rec.ID.Hex())
	assert.Equal(t, []string{"a", "b"}, names(got.Attachments))
}

func TestDeleteAttachment_UnknownRecord(t *testing.T) {
	cache := registry.NewCache(nil)
	ed := editor.New(&fakeStore{}, mediahosttest.New(), "", zap.NewNop())

	_, err := ed.DeleteAttachment(context.Background(), cache, primitive.NewObjectID().Hex(), 0)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUpdate_NoNewFilesLeavesAttachmentsUntouched(t *testing.T) {
	rec := baseRecord("a")
	cache := seeded(rec)
	store := &fakeStore{}
	up := mediahosttest.New()
	ed := editor.New(store, up, "", zap.NewNop())

	f := editor.FieldsOf(rec)
	f.Type = models.TypeMember
	f.Remarks = "<b>verified</b> transcript"

	n, err := ed.Update(context.Background(), cache, rec.ID.Hex(), f, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, up.Calls())

	require.Len(t, store.edits, 1)
	e := store.edits[0]
	assert.False(t, e.ReplaceAttachments)
	assert.Equal(t, models.TypeMember, e.Type)
	assert.Equal(t, "verified transcript", e.Remarks)
}

func TestUpdate_AppendsNewFilesInOrder(t *testing.T) {
	rec := baseRecord("a", "b")
	cache := seeded(rec)
	store := &fakeStore{}
	up := mediahosttest.New()
	ed := editor.New(store, up, "sple-attachments", zap.NewNop())

	files := []mediahost.Payload{
		{Name: "c.pdf", Body: strings.NewReader("c")},
		{Name: "d.pdf", Body: strings.NewReader("d")},
	}
	n, err := ed.Update(context.Background(), cache, rec.ID.Hex(), editor.FieldsOf(rec), files)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{"c.pdf", "d.pdf"}, up.Names())
	require.Len(t, store.edits, 1)
	assert.True(t, store.edits[0].ReplaceAttachments)
	assert.Equal(t, []string{"a", "b", "c.pdf", "d.pdf"}, names(store.edits[0].Attachments))

	got, _ := cache.Get(rec.ID.Hex())
	assert.Equal(t, []string{"a", "b", "c.pdf", "d.pdf"}, names(got.Attachments))
}

func TestUpdate_UploadFailureAbortsWrite(t *testing.T) {
	rec := baseRecord()
	cache := seeded(rec)
	store := &fakeStore{}
	up := mediahosttest.New()
	up.FailOn("c.pdf")
	ed := editor.New(store, up, "", zap.NewNop())

	files := []mediahost.Payload{
		{Name: "c.pdf", Body: strings.NewReader("c")},
		{Name: "d.pdf", Body: strings.NewReader("d")},
	}
	_, err := ed.Update(context.Background(), cache, rec.ID.Hex(), editor.FieldsOf(rec), files)
	assert.Equal(t, apperr.UploadFailure, apperr.KindOf(err))
	assert.Equal(t, []string{"c.pdf"}, up.Names())
	assert.Empty(t, store.edits)
}

func TestUpdate_RejectsUnknownType(t *testing.T) {
	rec := baseRecord()
	cache := seeded(rec)
	store := &fakeStore{}
	ed := editor.New(store, mediahosttest.New(), "", zap.NewNop())

	f := editor.FieldsOf(rec)
	f.Type = "Gold"
	_, err := ed.Update(context.Background(), cache, rec.ID.Hex(), f, nil)
	assert.Equal(t, apperr.ValidationFailure, apperr.KindOf(err))
	assert.Empty(t, store.edits)
}

func TestUpdate_StaleRecord(t *testing.T) {
	rec := baseRecord()
	cache := seeded(rec)
	store := &fakeStore{editErr: registrationstore.ErrNotFound}
	ed := editor.New(store, mediahosttest.New(), "", zap.NewNop())

	_, err := ed.Update(context.Background(), cache, rec.ID.Hex(), editor.FieldsOf(rec), nil)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDelete(t *testing.T) {
	store := &fakeStore{deleteN: 1}
	ed := editor.New(store, mediahosttest.New(), "", zap.NewNop())
	id := primitive.NewObjectID()

	require.NoError(t, ed.Delete(context.Background(), id.Hex()))
	assert.Equal(t, []primitive.ObjectID{id}, store.deleted)

	store.deleteN = 0
	err := ed.Delete(context.Background(), id.Hex())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	err = ed.Delete(context.Background(), "not-an-id")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUpdate_KeepsLegacyCategory(t *testing.T) {
	rec := baseRecord()
	rec.Category = "Intern"
	cache := seeded(rec)
	store := &fakeStore{}
	ed := editor.New(store, mediahosttest.New(), "", zap.NewNop())

	_, err := ed.Update(context.Background(), cache, rec.ID.Hex(), editor.FieldsOf(rec), nil)
	require.NoError(t, err)
	require.Len(t, store.edits, 1)
}

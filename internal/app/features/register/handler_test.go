package register_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/features/register"
	"github.com/dalemusser/splereg/internal/app/system/intake"
	"github.com/dalemusser/splereg/internal/app/system/mediahost/mediahosttest"
	"github.com/dalemusser/splereg/internal/app/system/ratelimit"
	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/dalemusser/splereg/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memWriter struct {
	mu      sync.Mutex
	written []models.Registration
}

func (m *memWriter) Create(ctx context.Context, r models.Registration) (models.Registration, error) {
	r.ID = primitive.NewObjectID()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, r)
	return r, nil
}

func (m *memWriter) all() []models.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Registration(nil), m.written...)
}

type fixture struct {
	h   *register.Handler
	up  *mediahosttest.Recorder
	out *memWriter
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) fixture {
	t.Helper()
	logger := zap.NewNop()
	up := mediahosttest.New()
	out := &memWriter{}
	svc := intake.New(up, out, intake.Config{Timeout: 5 * time.Second}, logger)
	h := register.NewHandler(svc, nil, uierrors.NewErrorLogger(logger), limiter, 5, "SPLE Kuwait", logger)
	return fixture{h: h, up: up, out: out}
}

func signatureURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG-sig"))
}

func formFields(signature string) map[string]string {
	return map[string]string{
		"surname":    "Haddad",
		"firstname":  "Sara",
		"midname":    "",
		"email":      "sara@uni.edu",
		"contact":    "+965 5555 1234",
		"whatsapp":   "",
		"university": "Kuwait University",
		"degree":     "MBBS",
		"category":   "Student",
		"signature":  signature,
	}
}

func TestHandleSubmit_Success(t *testing.T) {
	f := newFixture(t, nil)

	req := testutil.NewMultipartRequest(t, "POST", "/register", formFields(signatureURL()), []testutil.File{
		{Field: "attachments", Name: "a.pdf", Content: []byte("AAA")},
		{Field: "attachments", Name: "b.jpg", Content: []byte("BBBB")},
	})
	rec := httptest.NewRecorder()
	f.h.HandleSubmit(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/register/success"))

	assert.Equal(t, []string{"signature.png", "a.pdf", "b.jpg"}, f.up.Names())

	written := f.out.all()
	require.Len(t, written, 1)
	reg := written[0]
	require.Len(t, reg.Attachments, 2)
	assert.Equal(t, "a.pdf", reg.Attachments[0].Name)
	assert.Equal(t, "b.jpg", reg.Attachments[1].Name)
	assert.Equal(t, int64(4), reg.Attachments[1].Size)
	require.NotNil(t, reg.Signature)
	assert.Equal(t, "", reg.Type)
	assert.Equal(t, models.StatusPending, reg.Status)
}

func TestHandleSubmit_EmptySignature_NoUploadNoWrite(t *testing.T) {
	f := newFixture(t, nil)

	req := testutil.NewMultipartRequest(t, "POST", "/register", formFields(""), []testutil.File{
		{Field: "attachments", Name: "a.pdf", Content: []byte("AAA")},
	})
	rec := httptest.NewRecorder()
	testutil.Render(func() { f.h.HandleSubmit(rec, req) })

	assert.Empty(t, f.up.Calls())
	assert.Empty(t, f.out.all())
	assert.NotEqual(t, http.StatusSeeOther, rec.Code)
}

func TestHandleSubmit_MalformedSignature(t *testing.T) {
	f := newFixture(t, nil)

	req := testutil.NewMultipartRequest(t, "POST", "/register", formFields("data:image/jpeg;base64,AAAA"), nil)
	rec := httptest.NewRecorder()
	testutil.Render(func() { f.h.HandleSubmit(rec, req) })

	assert.Empty(t, f.up.Calls())
	assert.Empty(t, f.out.all())
}

func TestHandleSubmit_SecondAttachmentFails_NoWrite(t *testing.T) {
	f := newFixture(t, nil)
	f.up.FailOn("b.jpg")

	req := testutil.NewMultipartRequest(t, "POST", "/register", formFields(signatureURL()), []testutil.File{
		{Field: "attachments", Name: "a.pdf", Content: []byte("AAA")},
		{Field: "attachments", Name: "b.jpg", Content: []byte("BBBB")},
	})
	rec := httptest.NewRecorder()
	testutil.Render(func() { f.h.HandleSubmit(rec, req) })

	assert.Equal(t, []string{"signature.png", "a.pdf", "b.jpg"}, f.up.Names())
	assert.Empty(t, f.out.all())
	assert.NotEqual(t, http.StatusSeeOther, rec.Code)
}

func TestHandleSubmit_MissingRequiredField(t *testing.T) {
	f := newFixture(t, nil)
	fields := formFields(signatureURL())
	fields["university"] = "  "

	req := testutil.NewMultipartRequest(t, "POST", "/register", fields, nil)
	rec := httptest.NewRecorder()
	testutil.Render(func() { f.h.HandleSubmit(rec, req) })

	assert.Empty(t, f.up.Calls())
	assert.Empty(t, f.out.all())
}

func TestHandleSubmit_RateLimited(t *testing.T) {
	f := newFixture(t, ratelimit.New(1, time.Minute))

	first := testutil.NewMultipartRequest(t, "POST", "/register", formFields(signatureURL()), nil)
	rec := httptest.NewRecorder()
	f.h.HandleSubmit(rec, first)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	second := testutil.NewMultipartRequest(t, "POST", "/register", formFields(signatureURL()), nil)
	rec = httptest.NewRecorder()
	testutil.Render(func() { f.h.HandleSubmit(rec, second) })

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Len(t, f.out.all(), 1)
}

func TestHandleSubmit_BodyTooLarge(t *testing.T) {
	f := newFixture(t, nil)
	f.h.MaxUpload = 1024

	req := testutil.NewMultipartRequest(t, "POST", "/register", formFields(signatureURL()), []testutil.File{
		{Field: "attachments", Name: "big.pdf", Content: make([]byte, 8192)},
	})
	rec := httptest.NewRecorder()
	testutil.Render(func() { f.h.HandleSubmit(rec, req) })

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, f.up.Calls())
}

package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	userstore "github.com/dalemusser/splereg/internal/app/store/users"
	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the same request adds to the existing route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateAdmin inserts an active admin with the given password.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email, password string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, password, userstore.StatusActive)
}

// CreateDisabledAdmin inserts an admin whose account is disabled.
func (f *Fixtures) CreateDisabledAdmin(ctx context.Context, fullName, email, password string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, password, userstore.StatusDisabled)
}

func (f *Fixtures) createUser(ctx context.Context, fullName, email, password, status string) models.User {
	f.t.Helper()

	hash, err := userstore.HashPassword(password)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: hash,
		Role:         userstore.RoleAdmin,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// Registration returns a complete, valid pending registration that has not
// been stored. Callers override fields before passing it on.
func Registration(surname, firstName, email string) models.Registration {
	return models.Registration{
		Surname:    surname,
		FirstName:  firstName,
		Email:      email,
		Contact:    "+965 5555 0000",
		University: "Kuwait University",
		Degree:     "MBBS",
		Category:   "Student",
		Status:     models.StatusPending,
		Signature: &models.Signature{
			URL:      "https://media.test/sple-signatures/" + surname + ".png",
			PublicID: "sple-signatures/" + surname,
			Format:   "png",
		},
		Attachments: []models.Attachment{},
	}
}

// CreateRegistration inserts r with a fresh ID and the given creation time.
func (f *Fixtures) CreateRegistration(ctx context.Context, r models.Registration, createdAt time.Time) models.Registration {
	f.t.Helper()

	r.ID = primitive.NewObjectID()
	created := createdAt.UTC()
	r.CreatedAt = &created
	r.UpdatedAt = &created
	if r.Attachments == nil {
		r.Attachments = []models.Attachment{}
	}
	if _, err := f.db.Collection("registrations").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test registration: %v", err)
	}
	return r
}

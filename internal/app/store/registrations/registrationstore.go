// internal/app/store/registrations/registrationstore.go
package registrationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/splereg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the registrations collection name.
const Collection = "registrations"

var (
	ErrNotFound         = errors.New("registration not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// codeUnauthorized is the server error code for a refused operation.
const codeUnauthorized = 13

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a new registration. The server assigns the id and the
// creation time; Type and Remarks start empty and Status is pending.
func (s *Store) Create(ctx context.Context, r models.Registration) (models.Registration, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.CreatedAt = &now
	r.UpdatedAt = &now
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if r.Attachments == nil {
		r.Attachments = []models.Attachment{}
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Registration{}, mapErr(err)
	}
	return r, nil
}

// List returns every registration, newest first.
func (s *Store) List(ctx context.Context) ([]models.Registration, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)

	out := []models.Registration{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Registration, error) {
	var r models.Registration
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return models.Registration{}, ErrNotFound
	}
	if err != nil {
		return models.Registration{}, mapErr(err)
	}
	return r, nil
}

// SetAttachments overwrites the whole attachments array.
func (s *Store) SetAttachments(ctx context.Context, id primitive.ObjectID, atts []models.Attachment) error {
	if atts == nil {
		atts = []models.Attachment{}
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"attachments": atts,
		"updated_at":  time.Now().UTC(),
	}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Edit is a reviewer's change set. Every field is written as given.
// Attachments is written only when ReplaceAttachments is set.
type Edit struct {
	Surname    string
	FirstName  string
	MiddleName string
	Email      string
	Contact    string
	WhatsApp   string
	University string
	Degree     string
	Category   string
	Type       string
	Remarks    string

	ReplaceAttachments bool
	Attachments        []models.Attachment
}

// ApplyEdit writes e to the record. Concurrent edits are last-write-wins.
func (s *Store) ApplyEdit(ctx context.Context, id primitive.ObjectID, e Edit) error {
	set := bson.M{
		"surname":    e.Surname,
		"firstname":  e.FirstName,
		"midname":    e.MiddleName,
		"email":      e.Email,
		"contact":    e.Contact,
		"whatsapp":   e.WhatsApp,
		"university": e.University,
		"degree":     e.Degree,
		"category":   e.Category,
		"type":       e.Type,
		"remarks":    e.Remarks,
		"updated_at": time.Now().UTC(),
	}
	if e.ReplaceAttachments {
		atts := e.Attachments
		if atts == nil {
			atts = []models.Attachment{}
		}
		set["attachments"] = atts
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record only. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, mapErr(err)
	}
	return res.DeletedCount, nil
}

// ChangeEvents is an open subscription to collection changes.
type ChangeEvents interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}

// Watch opens a change stream on the collection. It fails on servers
// without change stream support (standalone mongod).
func (s *Store) Watch(ctx context.Context) (ChangeEvents, error) {
	cs, err := s.c.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func mapErr(err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeUnauthorized) {
		return ErrPermissionDenied
	}
	return err
}

// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/splereg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collection pairs a collection name with its validator; a nil schema
// only makes sure the collection exists.
type collection struct {
	name   string
	schema bson.M
}

func collections() []collection {
	return []collection{
		{"registrations", registrationsSchema()},
		{"users", usersSchema()},
		{"audit_events", nil}, // app-written only
	}
}

// EnsureAll creates the app's collections when missing and attaches their
// JSON-Schema validators. Servers without collMod support (some DocumentDB
// versions) keep the collection and skip the validator.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		// Fall through to create-and-tolerate-exists below.
		zap.L().Warn("listCollections failed", zap.Error(err))
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var problems []string
	for _, c := range collections() {
		if err := ensureCollection(ctx, db, c.name, have[c.name]); err != nil {
			problems = append(problems, c.name+": "+err.Error())
			continue
		}
		if c.schema == nil {
			continue
		}
		switch err := setValidator(ctx, db, c.name, c.schema); {
		case err == nil:
			zap.L().Info("validator ensured", zap.String("collection", c.name))
		case unsupported(err):
			zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
		default:
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, exists bool) error {
	if exists {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if hasCode(err, 48, "already exists", "namespace exists") {
			return nil
		}
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

// unsupported reports a server that lacks collMod or validators.
func unsupported(err error) bool {
	return hasCode(err, 59, "no such command") ||
		hasCode(err, 115, "not implemented", "not supported")
}

// hasCode matches a command error by code, or any error by message text.
func hasCode(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func registrationsSchema() bson.M {
	types := bson.A{}
	for _, t := range models.Types {
		types = append(types, t)
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"surname", "firstname", "email", "status", "attachments", "created_at"},
			"properties": bson.M{
				"surname":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"firstname":   bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":       bson.M{"bsonType": "string"},
				"type":        bson.M{"enum": types},
				"remarks":     bson.M{"bsonType": "string"},
				"status":      bson.M{"bsonType": "string"},
				"attachments": bson.M{"bsonType": "array"},
				"signature":   bson.M{"bsonType": bson.A{"object", "null"}},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "email_ci", "password_hash", "role"},
			"properties": bson.M{
				"full_name":     bson.M{"bsonType": "string"},
				"email":         bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email_ci":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"password_hash": bson.M{"bsonType": "string", "minLength": 1},
				"role":          bson.M{"enum": bson.A{"admin"}},
				"status":        bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

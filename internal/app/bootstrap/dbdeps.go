// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// The registry feed and the reviewer cache registry live here because
// both are fed from the database and outlive any single request.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Feed     *workers.RegistryFeed
	Sessions *registry.Sessions
}

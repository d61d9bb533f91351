// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/codetrackr/internal/app/system/mailer"
	"github.com/dalemusser/codetrackr/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler, and Shutdown. Shutdown closes what it holds.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Mailer for goal emails; nil when mail is disabled.
	Mailer *mailer.Mailer

	// Metrics shared by the HTTP middleware, ingestion and the task runner.
	Metrics *metrics.Metrics

	// ReportLocation is the time zone daily and weekly reports bucket in.
	ReportLocation *time.Location
}

package database

import (
	"context"
	"log"
	"time"

	"crm-gateway/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// MongodbDB wraps the application database. DB is nil when the gateway runs
// with the in-memory store.
type MongodbDB struct {
	DB *mongo.Database
}

// Enabled reports whether a MongoDB connection is available
func (m *MongodbDB) Enabled() bool {
	return m != nil && m.DB != nil
}

// Collection returns the named collection, or nil without a connection
func (m *MongodbDB) Collection(name string) *mongo.Collection {
	if !m.Enabled() {
		return nil
	}
	return m.DB.Collection(name)
}

// NewDatabase creates a new MongoDB database connection with lifecycle management
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*MongodbDB, error) {
	if !cfg.UsesMongo() {
		log.Println("Using in-memory store, MongoDB disabled")
		return &MongodbDB{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Connected to MongoDB!")

	db := client.Database(cfg.DBName)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Disconnecting from MongoDB...")
			return client.Disconnect(ctx)
		},
	})

	return &MongodbDB{DB: db}, nil
}

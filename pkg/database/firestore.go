package database

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"pendientes-backend/pkg/config"
)

// Database is the Firestore capability handed to every repository. The
// connection is established once at startup and closed on shutdown instead of
// being re-initialized lazily on demand.
type Database struct {
	client *firestore.Client
}

// Connect initializes the Firebase app and opens the Firestore client.
func Connect(ctx context.Context, cfg *config.Config) (*Database, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
	}

	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open Firestore client: %w", err)
	}

	log.Println("[FIRESTORE] Client initialized successfully")
	return &Database{client: client}, nil
}

// Client exposes the underlying Firestore client to repositories.
func (d *Database) Client() *firestore.Client {
	return d.client
}

func (d *Database) Collection(name string) *firestore.CollectionRef {
	return d.client.Collection(name)
}

func (d *Database) Batch() *firestore.WriteBatch {
	return d.client.Batch()
}

func (d *Database) Close() error {
	return d.client.Close()
}

package database

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce-loader/internal/config"
	"ecommerce-loader/internal/schema"
)

// MongoDriver loads each table into a collection guarded by a $jsonSchema
// validator. Multi-document transactions need a replica set, so they are
// only used when enabled in the settings.
type MongoDriver struct {
	settings config.MongoDatabase
	client   *mongo.Client
}

func NewMongoDriver(settings config.MongoDatabase) *MongoDriver {
	return &MongoDriver{settings: settings}
}

func (md *MongoDriver) Name() string   { return "mongo" }
func (md *MongoDriver) Target() string { return md.settings.DatabaseName }

// MetadataCollection is created by Provision so a new database persists
// before the first load. ApplySchema leaves it alone.
const MetadataCollection = "loader_metadata"

// namespaceExists is the server error code for creating a collection that
// already exists.
const namespaceExists = 48

// Provision creates the database if absent. MongoDB only keeps a database
// that holds a collection, so creation means creating MetadataCollection.
func (md *MongoDriver) Provision(ctx context.Context) (ProvisionResult, error) {
	result := ProvisionResult{Target: md.Target()}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(md.settings.URI))
	if err != nil {
		return result, err
	}
	defer client.Disconnect(context.Background())

	names, err := client.ListDatabaseNames(ctx, bson.M{"name": md.settings.DatabaseName})
	if err != nil {
		return result, fmt.Errorf("list databases: %w", err)
	}
	if slices.Contains(names, md.settings.DatabaseName) {
		return result, nil
	}

	result.Created, err = createdBy(client.Database(md.settings.DatabaseName).CreateCollection(ctx, MetadataCollection))
	return result, err
}

// createdBy interprets the outcome of creating MetadataCollection. Losing a
// race to another provisioner means the database already exists.
func createdBy(err error) (bool, error) {
	var cmdErr mongo.CommandError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &cmdErr) && cmdErr.Code == namespaceExists:
		return false, nil
	}
	return false, fmt.Errorf("create database: %w", err)
}

func (md *MongoDriver) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(md.settings.URI))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return err
	}
	md.client = client
	return nil
}

func (md *MongoDriver) Close() error {
	if md.client == nil {
		return nil
	}
	err := md.client.Disconnect(context.Background())
	md.client = nil
	return err
}

func (md *MongoDriver) database() *mongo.Database {
	return md.client.Database(md.settings.DatabaseName)
}

func (md *MongoDriver) ExecuteTx(ctx context.Context, txFunc func(Tx) error) error {
	if md.client == nil {
		return ErrNotConnected
	}
	if !md.settings.UseTransactions {
		return txFunc(ctx)
	}

	session, err := md.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := txFunc(sessCtx); err != nil {
			return nil, err
		}
		return nil, nil
	})

	return err
}

// ApplySchema drops and recreates the collections. Collection DDL runs
// outside any session transaction.
func (md *MongoDriver) ApplySchema(ctx context.Context, _ Tx, catalog schema.Catalog, _ bool) error {
	if md.client == nil {
		return ErrNotConnected
	}
	db := md.database()
	for _, table := range catalog.DropOrder() {
		if err := db.Collection(table.Name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", table.Name, err)
		}
	}
	for _, table := range catalog.Tables() {
		opts := options.CreateCollection().SetValidator(Validator(table))
		if err := db.CreateCollection(ctx, table.Name, opts); err != nil {
			return fmt.Errorf("create %s: %w", table.Name, err)
		}
		if pk := table.PrimaryKey(); pk >= 0 {
			_, err := db.Collection(table.Name).Indexes().CreateOne(ctx, mongo.IndexModel{
				Keys:    bson.D{{Key: table.Columns[pk].Name, Value: 1}},
				Options: options.Index().SetUnique(true),
			})
			if err != nil {
				return fmt.Errorf("index %s: %w", table.Name, err)
			}
		}
	}
	return nil
}

// Validator renders the $jsonSchema validator for table. Every column may
// also be null, matching the nullable SQL columns.
func Validator(table schema.Table) bson.M {
	props := bson.M{}
	for _, c := range table.Columns {
		props[c.Name] = bson.M{"bsonType": bson.A{schema.Mongo.Types[c.Type], "null"}}
	}
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"properties": props,
	}}
}

// Document converts a row into a BSON document in column order.
func Document(table schema.Table, row []any) bson.D {
	doc := make(bson.D, len(table.Columns))
	for i, c := range table.Columns {
		v := row[i]
		if n, ok := v.(int64); ok && c.Type == schema.Integer {
			v = int32(n)
		}
		doc[i] = bson.E{Key: c.Name, Value: v}
	}
	return doc
}

func (md *MongoDriver) BulkInsert(ctx context.Context, tx Tx, table schema.Table, rows [][]any) (int64, error) {
	if md.client == nil {
		return 0, ErrNotConnected
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if c, ok := tx.(context.Context); ok {
		ctx = c
	}

	docs := make([]interface{}, len(rows))
	for i, row := range rows {
		docs[i] = Document(table, row)
	}
	res, err := md.database().Collection(table.Name).InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table.Name, err)
	}
	return int64(len(res.InsertedIDs)), nil
}

func (md *MongoDriver) CountRows(ctx context.Context, table schema.Table) (int64, error) {
	if md.client == nil {
		return 0, ErrNotConnected
	}
	n, err := md.database().Collection(table.Name).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table.Name, err)
	}
	return n, nil
}

var _ Backend = (*MongoDriver)(nil)

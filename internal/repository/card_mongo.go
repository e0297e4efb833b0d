package repository

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"cardvault-rest-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBCardRepository implements CardRepository using MongoDB.
type MongoDBCardRepository struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

// cardDocument is the BSON shape of a catalog entry.
type cardDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Type      string    `bson:"type"`
	Rarity    string    `bson:"rarity"`
	HP        string    `bson:"hp,omitempty"`
	SetName   string    `bson:"set_name,omitempty"`
	SetID     string    `bson:"set_id,omitempty"`
	Number    string    `bson:"number,omitempty"`
	Artist    string    `bson:"artist,omitempty"`
	ImageFile string    `bson:"image_file,omitempty"`
	ImagePath string    `bson:"image_path,omitempty"`
	Owned     bool      `bson:"owned"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoDBCardRepository creates a new MongoDB card repository.
func NewMongoDBCardRepository(uri, database, collection string) (*MongoDBCardRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	coll := db.Collection(collection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("[MongoDB] Warning: failed to create index: %v", err)
	}

	log.Printf("[MongoDB] Connected to %s/%s", database, collection)
	return &MongoDBCardRepository{
		client:     client,
		db:         db,
		collection: coll,
	}, nil
}

func toDocument(c model.Card) cardDocument {
	return cardDocument{
		ID: c.ID, Name: c.Name, Type: c.Type, Rarity: c.Rarity, HP: c.HP,
		SetName: c.SetName, SetID: c.SetID, Number: c.Number, Artist: c.Artist,
		ImageFile: c.ImageFile, ImagePath: c.ImagePath, Owned: c.Owned,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func fromDocument(d cardDocument) model.Card {
	return model.Card{
		ID: d.ID, Name: d.Name, Type: d.Type, Rarity: d.Rarity, HP: d.HP,
		SetName: d.SetName, SetID: d.SetID, Number: d.Number, Artist: d.Artist,
		ImageFile: d.ImageFile, ImagePath: d.ImagePath, Owned: d.Owned,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

// UpsertCards upserts cards in one unordered bulk write, merging by id.
func (r *MongoDBCardRepository) UpsertCards(ctx context.Context, cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}

	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(cards))
	for _, c := range cards {
		filter := bson.M{"_id": c.ID}
		update := bson.M{
			"$set": bson.M{
				"name":       c.Name,
				"type":       c.Type,
				"rarity":     c.Rarity,
				"hp":         c.HP,
				"set_name":   c.SetName,
				"set_id":     c.SetID,
				"number":     c.Number,
				"artist":     c.Artist,
				"image_file": c.ImageFile,
				"image_path": c.ImagePath,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"owned":      c.Owned,
				"created_at": now,
			},
		}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := r.collection.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("failed to batch upsert: %w", err)
	}

	log.Printf("[MongoDB] Upserted %d cards", len(cards))
	return nil
}

// ListCards returns cards matching the filter, ordered by name.
func (r *MongoDBCardRepository) ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, error) {
	query := bson.M{}
	if filter.NameQuery != "" {
		query["name"] = bson.M{"$regex": primitive.Regex{
			Pattern: regexQuote(filter.NameQuery),
			Options: "i",
		}}
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Rarity != "" {
		query["rarity"] = filter.Rarity
	}
	if filter.SetID != "" {
		query["set_id"] = filter.SetID
	}
	if filter.Owned != nil {
		query["owned"] = *filter.Owned
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts = opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer cursor.Close(ctx)

	var cards []model.Card
	for cursor.Next(ctx) {
		var doc cardDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode card: %w", err)
		}
		cards = append(cards, fromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	// Mongo sorts name case-sensitively by default; normalize to the
	// case-insensitive order the SQL backends produce.
	sort.SliceStable(cards, func(i, j int) bool {
		return strings.ToLower(cards[i].Name) < strings.ToLower(cards[j].Name)
	})
	return cards, nil
}

// GetCard retrieves a single card by id.
func (r *MongoDBCardRepository) GetCard(ctx context.Context, id string) (*model.Card, error) {
	var doc cardDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	card := fromDocument(doc)
	return &card, nil
}

// SetOwned marks a card as owned or not.
func (r *MongoDBCardRepository) SetOwned(ctx context.Context, id string, owned bool) error {
	update := bson.M{"$set": bson.M{"owned": owned, "updated_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set ownership: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCardNotFound
	}
	return nil
}

// CountCards returns the catalog size.
func (r *MongoDBCardRepository) CountCards(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// GetStats returns statistics about the card collection.
func (r *MongoDBCardRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, err
	}
	stats["total_cards"] = count

	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	var doc cardDocument
	if err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&doc); err == nil {
		stats["last_update"] = doc.UpdatedAt
	}

	result := r.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: r.collection.Name()}})
	var collStats bson.M
	if err := result.Decode(&collStats); err == nil {
		if size, ok := collStats["size"].(int64); ok {
			stats["db_size_bytes"] = size
		} else if size, ok := collStats["size"].(int32); ok {
			stats["db_size_bytes"] = int64(size)
		}
	}

	return stats, nil
}

// Close disconnects from MongoDB.
func (r *MongoDBCardRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// regexQuote escapes regex metacharacters in a name query.
func regexQuote(s string) string {
	special := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, ch := range s {
		if strings.ContainsRune(special, ch) {
			b.WriteByte('\\')
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Ensure MongoDBCardRepository implements CardRepository
var _ CardRepository = (*MongoDBCardRepository)(nil)

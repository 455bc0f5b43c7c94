package consultantRepo

import (
	"context"
	"fmt"
	"time"

	"veridie/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoConsultantRepo implements ConsultantRepository using MongoDB.
type MongoConsultantRepo struct {
	coll *mongo.Collection
}

// NewMongoConsultantRepo creates a ConsultantRepository backed by the
// "consultants" collection.
func NewMongoConsultantRepo(client *mongo.Client, dbName string) ConsultantRepository {
	coll := client.Database(dbName).Collection("consultants")
	return &MongoConsultantRepo{coll: coll}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoConsultantRepo) GetByID(id string) (*models.Consultant, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var consultant models.Consultant
	filter := bson.M{"id": id}
	if err := r.coll.FindOne(ctx, filter).Decode(&consultant); err != nil {
		return nil, fmt.Errorf("failed to fetch consultant with id %s: %w", id, err)
	}
	return &consultant, nil
}

func (r *MongoConsultantRepo) GetService(consultantID, serviceID string) (*models.Service, error) {
	consultant, err := r.GetByID(consultantID)
	if err != nil {
		return nil, err
	}
	for _, svc := range consultant.Services {
		if svc.ID == serviceID {
			return &svc, nil
		}
	}
	return nil, fmt.Errorf("service %s not found for consultant %s", serviceID, consultantID)
}

func (r *MongoConsultantRepo) Create(consultant *models.Consultant) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, consultant)
	if err != nil {
		return fmt.Errorf("failed to create consultant: %w", err)
	}
	return nil
}

func (r *MongoConsultantRepo) Delete(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete consultant with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("consultant with id %s not found", id)
	}
	return nil
}

// UpdateCredential rotates the stored Calendly credential in a single $set.
func (r *MongoConsultantRepo) UpdateCredential(consultantID string, cred models.CalendlyCredential) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"calendly":   cred,
		"updated_at": time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": consultantID}, update)
	if err != nil {
		return fmt.Errorf("failed to update credential for consultant %s: %w", consultantID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("consultant with id %s not found", consultantID)
	}
	return nil
}

func (r *MongoConsultantRepo) ClearCredential(consultantID string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{
		"$set":   bson.M{"updated_at": time.Now()},
		"$unset": bson.M{"calendly": ""},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": consultantID}, update)
	if err != nil {
		return fmt.Errorf("failed to clear credential for consultant %s: %w", consultantID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("consultant with id %s not found", consultantID)
	}
	return nil
}

// UpdateEventTypeMapping attaches an event type URI to a specific service, or
// to the consultant default when serviceID is empty.
func (r *MongoConsultantRepo) UpdateEventTypeMapping(consultantID, serviceID, eventTypeURI string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var filter, update bson.M
	if serviceID == "" {
		filter = bson.M{"id": consultantID}
		update = bson.M{"$set": bson.M{
			"default_event_type_uri": eventTypeURI,
			"updated_at":             time.Now(),
		}}
	} else {
		filter = bson.M{"id": consultantID, "services.id": serviceID}
		update = bson.M{"$set": bson.M{
			"services.$.event_type_uri": eventTypeURI,
			"updated_at":                time.Now(),
		}}
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update event type mapping for consultant %s: %w", consultantID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("consultant %s (service %q) not found", consultantID, serviceID)
	}
	return nil
}

func (r *MongoConsultantRepo) SetPaymentAccount(consultantID, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"stripe_account_id": stripeAccountID,
		"charges_enabled":   chargesEnabled,
		"payouts_enabled":   payoutsEnabled,
		"updated_at":        time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": consultantID}, update)
	if err != nil {
		return fmt.Errorf("failed to set payment account for consultant %s: %w", consultantID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("consultant with id %s not found", consultantID)
	}
	return nil
}

func (r *MongoConsultantRepo) ListExpiringCredentials(cutoff time.Time) ([]models.Consultant, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{
		"calendly.refresh_token": bson.M{"$ne": ""},
		"$or": []bson.M{
			{"calendly.expires_at": bson.M{"$lt": cutoff}},
			{"calendly.expires_at": bson.M{"$exists": false}},
		},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var consultants []models.Consultant
	for cursor.Next(ctx) {
		var c models.Consultant
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode consultant: %w", err)
		}
		consultants = append(consultants, c)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return consultants, nil
}

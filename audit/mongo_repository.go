// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	eventsCollection   = "scan_events"
	countersCollection = "counters"
)

// MongoRepository implements Repository on MongoDB. Events keep the same
// int64 IDs the SQL backends produce, allocated from a counters collection,
// and findings are embedded in the event document.
type MongoRepository struct {
	client   *mongo.Client
	events   *mongo.Collection
	counters *mongo.Collection
}

var _ Repository = (*MongoRepository)(nil)

// NewMongoRepository creates a repository over db.
func NewMongoRepository(client *mongo.Client, dbName string) *MongoRepository {
	db := client.Database(dbName)
	return &MongoRepository{
		client:   client,
		events:   db.Collection(eventsCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoFinding struct {
	ID              int64  `bson:"id"`
	ScannerType     string `bson:"scanner_type"`
	FindingType     string `bson:"finding_type"`
	Severity        string `bson:"severity"`
	StartOffset     int    `bson:"start_offset"`
	EndOffset       int    `bson:"end_offset"`
	RedactedSnippet string `bson:"redacted_snippet,omitempty"`
}

type mongoEvent struct {
	ID            int64          `bson:"_id"`
	Timestamp     time.Time      `bson:"timestamp"`
	AgentID       string         `bson:"agent_id,omitempty"`
	Destination   string         `bson:"destination,omitempty"`
	ContentHash   string         `bson:"content_hash"`
	Action        string         `bson:"action"`
	FindingsCount int            `bson:"findings_count"`
	DurationMs    float64        `bson:"duration_ms"`
	Findings      []mongoFinding `bson:"findings"`
}

func (d mongoEvent) toEvent() Event {
	event := Event{
		ID:            d.ID,
		Timestamp:     d.Timestamp,
		AgentID:       d.AgentID,
		Destination:   d.Destination,
		ContentHash:   d.ContentHash,
		Action:        d.Action,
		FindingsCount: d.FindingsCount,
		DurationMs:    d.DurationMs,
		Findings:      make([]Finding, 0, len(d.Findings)),
	}
	for _, f := range d.Findings {
		event.Findings = append(event.Findings, Finding(f))
	}
	return event
}

// nextEventID allocates a monotonically increasing event ID.
func (r *MongoRepository) nextEventID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": eventsCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate event id: %w", err)
	}
	return counter.Seq, nil
}

// LogScan inserts the event with findings embedded, a single document write.
func (r *MongoRepository) LogScan(ctx context.Context, record *ScanRecord) (int64, error) {
	if record == nil {
		return 0, ErrInvalidInput
	}

	eventID, err := r.nextEventID(ctx)
	if err != nil {
		return 0, err
	}

	doc := mongoEvent{
		ID:            eventID,
		Timestamp:     time.Now().UTC(),
		AgentID:       record.AgentID,
		Destination:   record.Destination,
		ContentHash:   record.ContentHash,
		Action:        record.Action,
		FindingsCount: record.FindingsCount,
		DurationMs:    record.DurationMs,
		Findings:      make([]mongoFinding, 0, len(record.Findings)),
	}
	for i, f := range record.Findings {
		// Embedded findings get per-event ordinal IDs.
		f.ID = int64(i + 1)
		doc.Findings = append(doc.Findings, mongoFinding(f))
	}

	if _, err := r.events.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("failed to insert scan event: %w", err)
	}
	return eventID, nil
}

// QueryEvents returns events matching q, newest first.
func (r *MongoRepository) QueryEvents(ctx context.Context, q Query) ([]Event, error) {
	q = q.normalized()

	opts := options.Find().
		SetSort(eventSort()).
		SetLimit(int64(q.Limit)).
		SetSkip(int64(q.Offset))

	cursor, err := r.events.Find(ctx, buildEventFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan events: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	events := []Event{}
	for cursor.Next(ctx) {
		var doc mongoEvent
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode scan event: %w", err)
		}
		events = append(events, doc.toEvent())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan events: %w", err)
	}
	return events, nil
}

// GetEvent returns one event, or ErrNotFound.
func (r *MongoRepository) GetEvent(ctx context.Context, id int64) (*Event, error) {
	var doc mongoEvent
	err := r.events.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan event: %w", err)
	}

	event := doc.toEvent()
	return &event, nil
}

// GetStats aggregates the dashboard statistics.
func (r *MongoRepository) GetStats(ctx context.Context) (*Stats, error) {
	stats := emptyStats()

	total, err := r.events.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}
	stats.TotalScans = total

	err = r.aggregateCounts(ctx, actionCountsPipeline(), func(label string, count int64) {
		stats.ActionCounts = append(stats.ActionCounts, ActionCount{Action: label, Count: count})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate actions: %w", err)
	}

	err = r.aggregateCounts(ctx, severityCountsPipeline(), func(label string, count int64) {
		stats.SeverityCounts = append(stats.SeverityCounts, SeverityCount{Severity: label, Count: count})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate severities: %w", err)
	}

	err = r.aggregateCounts(ctx, topFindingTypesPipeline(), func(label string, count int64) {
		stats.TopFindingTypes = append(stats.TopFindingTypes, FindingTypeCount{FindingType: label, Count: count})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate finding types: %w", err)
	}

	recent, err := r.QueryEvents(ctx, Query{Limit: recentScanCount})
	if err != nil {
		return nil, err
	}
	stats.RecentScans = recent

	return stats, nil
}

// Ping verifies connectivity against the primary.
func (r *MongoRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

// Close disconnects the client.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) aggregateCounts(ctx context.Context, pipeline mongo.Pipeline, emit func(label string, count int64)) error {
	cursor, err := r.events.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer func() { _ = cursor.Close(ctx) }()

	for cursor.Next(ctx) {
		var row struct {
			Label string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return err
		}
		emit(row.Label, row.Count)
	}
	return cursor.Err()
}

// buildEventFilter translates a Query into a find filter. Empty fields are
// not applied.
func buildEventFilter(q Query) bson.M {
	filter := bson.M{}
	if q.AgentID != "" {
		filter["agent_id"] = q.AgentID
	}
	if q.Destination != "" {
		filter["destination"] = q.Destination
	}
	if q.Action != "" {
		filter["action"] = q.Action
	}
	return filter
}

func eventSort() bson.D {
	return bson.D{
		{Key: "timestamp", Value: -1},
		{Key: "_id", Value: -1},
	}
}

func actionCountsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$action"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	}
}

func severityCountsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$findings"}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$findings.severity"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	}
}

func topFindingTypesPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$findings"}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$findings.finding_type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		bson.D{{Key: "$limit", Value: 10}},
	}
}

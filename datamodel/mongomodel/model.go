// Package mongomodel serves a MongoDB collection as a datamodel.Model.
// Primary keys are the hex form of the documents' ObjectIDs.
package mongomodel

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/rampart/datamodel"
)

var _ datamodel.Model = (*Model)(nil)

var mongoOps = map[datamodel.Op]string{
	datamodel.OpGt:  "$gt",
	datamodel.OpGte: "$gte",
	datamodel.OpLt:  "$lt",
	datamodel.OpLte: "$lte",
	datamodel.OpIn:  "$in",
}

// Model wraps one collection.
type Model struct {
	coll *mongod.Collection
}

// New creates a model over coll.
func New(coll *mongod.Collection) *Model {
	return &Model{coll: coll}
}

// FromDB creates a model over the named collection of a grove Mongo
// database.
func FromDB(db *grove.DB, collection string) *Model {
	return New(mongodriver.Unwrap(db).Collection(collection))
}

func (m *Model) Filter(ctx context.Context, criteria map[string]any) ([]datamodel.Record, error) {
	filter, err := BuildFilter(criteria)
	if err != nil {
		return nil, err
	}
	cur, err := m.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongomodel: find: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongomodel: decode: %w", err)
	}
	out := make([]datamodel.Record, 0, len(docs))
	for _, doc := range docs {
		r, err := m.record(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Model) Create(ctx context.Context, fields map[string]any) (datamodel.Record, error) {
	if _, ok := fields["_id"]; ok {
		return nil, fmt.Errorf("%w: _id", datamodel.ErrUnknownField)
	}
	oid := bson.NewObjectID()
	doc := bson.M{"_id": oid}
	for k, v := range fields {
		doc[k] = v
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("mongomodel: insert: %w", err)
	}
	return m.record(doc)
}

func (m *Model) DeleteMatching(ctx context.Context, criteria map[string]any) (int64, error) {
	filter, err := BuildFilter(criteria)
	if err != nil {
		return 0, err
	}
	res, err := m.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("mongomodel: delete: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *Model) Get(ctx context.Context, pk any) (datamodel.Record, error) {
	oid, err := objectID(pk)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongod.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: pk %s", datamodel.ErrNotFound, oid.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("mongomodel: find one: %w", err)
	}
	return m.record(doc)
}

func (m *Model) record(doc bson.M) (*record, error) {
	oid, ok := doc["_id"].(bson.ObjectID)
	if !ok {
		return nil, fmt.Errorf("mongomodel: document without ObjectID key")
	}
	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		if k != "_id" {
			fields[k] = v
		}
	}
	return &record{coll: m.coll, id: oid, fields: fields}, nil
}

// BuildFilter translates criteria into a Mongo filter document.
func BuildFilter(criteria map[string]any) (bson.M, error) {
	lookups, err := datamodel.ParseLookups(criteria)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	for _, l := range lookups {
		field, value := l.Field, l.Value
		if field == datamodel.PKField {
			field = "_id"
			if value, err = pkValue(l); err != nil {
				return nil, err
			}
		}

		var cond any
		switch l.Op {
		case datamodel.OpExact:
			cond = value
		case datamodel.OpContains:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s__contains expects a string", datamodel.ErrUnsupportedLookup, l.Field)
			}
			cond = bson.M{"$regex": regexp.QuoteMeta(s)}
		default:
			cond = bson.M{mongoOps[l.Op]: value}
		}

		if prev, ok := filter[field]; ok {
			pm, ok1 := prev.(bson.M)
			cm, ok2 := cond.(bson.M)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("%w: conflicting lookups on %s", datamodel.ErrUnsupportedLookup, l.Field)
			}
			for k, v := range cm {
				pm[k] = v
			}
			continue
		}
		filter[field] = cond
	}
	return filter, nil
}

func pkValue(l datamodel.Lookup) (any, error) {
	if l.Op == datamodel.OpIn {
		list := l.Value.([]any)
		ids := make([]bson.ObjectID, len(list))
		for i, v := range list {
			oid, err := objectID(v)
			if err != nil {
				return nil, err
			}
			ids[i] = oid
		}
		return ids, nil
	}
	return objectID(l.Value)
}

func objectID(pk any) (bson.ObjectID, error) {
	s, ok := pk.(string)
	if !ok {
		return bson.ObjectID{}, fmt.Errorf("%w: pk %v", datamodel.ErrNotFound, pk)
	}
	oid, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: pk %q", datamodel.ErrNotFound, s)
	}
	return oid, nil
}

type record struct {
	coll   *mongod.Collection
	id     bson.ObjectID
	fields map[string]any
}

func (r *record) PK() any { return r.id.Hex() }

func (r *record) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

func (r *record) Update(ctx context.Context, fields map[string]any) error {
	if _, ok := fields["_id"]; ok {
		return fmt.Errorf("%w: _id", datamodel.ErrUnknownField)
	}
	if len(fields) == 0 {
		return nil
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": r.id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("mongomodel: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: pk %s", datamodel.ErrNotFound, r.id.Hex())
	}
	for k, v := range fields {
		r.fields[k] = v
	}
	return nil
}

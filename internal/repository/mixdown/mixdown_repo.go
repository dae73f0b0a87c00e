package mixdown

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mango/internal/model/studio"
)

// Repository 混音产物仓库接口（供 service 层依赖）
type Repository interface {
	Create(ctx context.Context, m *studio.Mixdown) error
	FindByID(ctx context.Context, id string) (*studio.Mixdown, error)
	List(ctx context.Context, limit int64) ([]*studio.Mixdown, error)
}

// MongoRepo 混音产物仓库
type MongoRepo struct {
	coll *mongo.Collection
}

// NewMongoRepo 创建混音产物仓库
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	var m studio.Mixdown
	return &MongoRepo{coll: db.Collection(m.Collection())}
}

// Create 创建记录
func (r *MongoRepo) Create(ctx context.Context, m *studio.Mixdown) error {
	m.CreatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

// FindByID 按ID查询
func (r *MongoRepo) FindByID(ctx context.Context, id string) (*studio.Mixdown, error) {
	var m studio.Mixdown
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List 按创建时间倒序列出
func (r *MongoRepo) List(ctx context.Context, limit int64) ([]*studio.Mixdown, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*studio.Mixdown
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

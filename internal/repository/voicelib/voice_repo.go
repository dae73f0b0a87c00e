package voicelib

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mango/internal/model/voicelib"
	"mango/internal/pkg/id"
)

// Repository 角色库仓库接口（供 service 层依赖）
// 注入的键值存储抽象：mongo 实现用于生产，内存实现用于测试与无库部署
type Repository interface {
	Lookup(ctx context.Context, speaker, engine string) (string, bool, error)
	Upsert(ctx context.Context, speaker, voiceID, engine string) error
	List(ctx context.Context) ([]*voicelib.VoiceBinding, error)
}

// MongoRepo 角色库仓库（MongoDB）
type MongoRepo struct {
	coll *mongo.Collection
}

// NewMongoRepo 创建角色库仓库
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	var v voicelib.VoiceBinding
	return &MongoRepo{coll: db.Collection(v.Collection())}
}

// Lookup 按角色名查询当前引擎下的绑定音色（大小写无关）
// 绑定的音色 id 只在自己的引擎池内有意义，查询必须带引擎过滤
func (r *MongoRepo) Lookup(ctx context.Context, speaker, engine string) (string, bool, error) {
	var binding voicelib.VoiceBinding
	filter := bson.M{"speaker_key": voicelib.NormalizeSpeakerKey(speaker), "engine": engine}
	err := r.coll.FindOne(ctx, filter).Decode(&binding)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, err
	}
	return binding.VoiceID, true, nil
}

// Upsert 写入或更新绑定
func (r *MongoRepo) Upsert(ctx context.Context, speaker, voiceID, engine string) error {
	now := time.Now()
	key := voicelib.NormalizeSpeakerKey(speaker)
	filter := bson.M{"speaker_key": key, "engine": engine}
	update := bson.M{
		"$set": bson.M{
			"speaker":    speaker,
			"voice_id":   voiceID,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"id":          id.New(),
			"speaker_key": key,
			"engine":      engine,
			"created_at":  now,
		},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// List 列出全部绑定（按更新时间倒序）
func (r *MongoRepo) List(ctx context.Context) ([]*voicelib.VoiceBinding, error) {
	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var bindings []*voicelib.VoiceBinding
	if err := cur.All(ctx, &bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}

package studio

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mixdown 一次成功渲染的产物记录
type Mixdown struct {
	ID           string   `bson:"id" json:"id"` // 混音ID（UUID）
	ResourceKey  string   `bson:"resource_key" json:"resource_key"`
	Duration     float64  `bson:"duration" json:"duration"`           // 输出时长（秒）
	SampleRate   int      `bson:"sample_rate" json:"sample_rate"`     // 输出采样率
	SegmentCount int      `bson:"segment_count" json:"segment_count"` // 参与混音的片段数
	CastSize     int      `bson:"cast_size" json:"cast_size"`         // 检出的角色数
	Engine       string   `bson:"engine" json:"engine"`               // 使用的合成引擎
	Warnings     []string `bson:"warnings,omitempty" json:"warnings,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Collection 返回集合名称
func (m *Mixdown) Collection() string { return "mixdowns" }

// EnsureIndexes 创建和维护索引
func (m *Mixdown) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(m.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created"),
		},
		{
			Keys:    bson.D{bson.E{Key: "resource_key", Value: 1}},
			Options: options.Index().SetName("idx_resource_key"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

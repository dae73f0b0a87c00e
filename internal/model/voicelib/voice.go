package voicelib

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VoiceBinding 角色名到音色的持久关联（角色库记忆）
// 查询按 SpeakerKey 大小写无关
type VoiceBinding struct {
	ID         string    `bson:"id" json:"id"`                   // 绑定ID（UUID）
	Speaker    string    `bson:"speaker" json:"speaker"`         // 角色名（原始大小写）
	SpeakerKey string    `bson:"speaker_key" json:"speaker_key"` // 小写查询键
	VoiceID    string    `bson:"voice_id" json:"voice_id"`       // 绑定的音色
	Engine     string    `bson:"engine" json:"engine"`           // 音色所属引擎
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// NormalizeSpeakerKey 角色名查询键
func NormalizeSpeakerKey(speaker string) string {
	return strings.ToLower(strings.TrimSpace(speaker))
}

// Collection 返回集合名称
func (v *VoiceBinding) Collection() string { return "voice_bindings" }

// EnsureIndexes 创建和维护索引
func (v *VoiceBinding) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(v.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "speaker_key", Value: 1}, bson.E{Key: "engine", Value: 1}},
			Options: options.Index().SetName("idx_speaker_engine").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_updated"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

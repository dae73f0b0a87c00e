package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"mango/internal/model/studio"
	"mango/internal/model/voicelib"
)

// EnsureIndexes 创建所有模型的索引
// 应用启动时的统一入口，实现了 Model 接口的模型在这里注册
func EnsureIndexes(db *mongo.Database) error {
	ctx := context.Background()

	models := []Model{
		&voicelib.VoiceBinding{},
		&studio.Mixdown{},
	}

	return EnsureAllIndexes(ctx, db, models...)
}

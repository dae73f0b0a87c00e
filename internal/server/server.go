package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"mango/internal/config"
	"mango/internal/handler"
	studioHandler "mango/internal/handler/studio"
	"mango/internal/pkg/cache"
	"mango/internal/pkg/dubtools"
	"mango/internal/pkg/dubtools/providers"
	"mango/internal/pkg/mongodb"
	"mango/internal/pkg/storagefactory"
	"mango/internal/pkg/tts"
	mixdownRepo "mango/internal/repository/mixdown"
	voicelibRepo "mango/internal/repository/voicelib"
	"mango/internal/server/middleware"
	studioService "mango/internal/service/studio"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
	studio *studioService.Service
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 初始化 MongoDB (可选)
	var mongoClient *mongodb.Client
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			// 创建索引
			if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	// 初始化存储
	store, err := storagefactory.NewStorage(context.Background(), &cfg.Storage)
	if err != nil {
		return nil, err
	}
	log.Info().Str("type", store.GetStorageType()).Msg("storage initialized")

	// 初始化 TTS 客户端与合成提供者 (可选)
	// 未配置令牌时照常启动，合成请求会以静音占位
	ttsClient, err := tts.NewClient(&cfg.TTS)
	if err != nil {
		log.Warn().Err(err).Msg("TTS client not configured, synthesis will fall back to silence")
		ttsClient = nil
	}

	var synth dubtools.SynthesisProvider = providers.NewByteDanceTTSProvider(ttsClient)
	if redisCache != nil {
		synth = providers.NewCachedSynthesisProvider(synth, redisCache, cfg.Studio.CacheTTL)
		log.Info().Dur("ttl", cfg.Studio.CacheTTL).Msg("render cache enabled")
	}

	sfx := providers.NewStorageSoundEffectProvider(store, cfg.Studio.SFXPrefix)
	orchestrator := dubtools.NewOrchestrator(synth, sfx)

	// 按配置选择音色池
	var pool dubtools.VoicePool
	switch cfg.Studio.Engine {
	case "openai":
		pool = dubtools.NewOpenAIPool()
	default:
		pool = dubtools.NewBytedancePool()
	}

	// 仓储（MongoDB 未配置时退化为无持久化）
	var voiceRepo voicelibRepo.Repository
	var mixRepo mixdownRepo.Repository
	if mongoClient != nil {
		voiceRepo = voicelibRepo.NewMongoRepo(mongoClient.Database())
		mixRepo = mixdownRepo.NewMongoRepo(mongoClient.Database())
	} else {
		voiceRepo = voicelibRepo.NewMemoryRepo()
		log.Warn().Msg("MongoDB not configured, voice bindings are in-memory only")
	}

	studioSvc := studioService.NewService(voiceRepo, mixRepo, orchestrator, pool, store, &cfg.Studio)

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		mongo:  mongoClient,
		redis:  redisCache,
		studio: studioSvc,
	}

	// 设置路由
	srv.setupRoutes()

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		studioHdl := studioHandler.NewHandler(s.studio)

		// 剧本处理
		v1.POST("/scripts/segment", studioHdl.SegmentScript)
		v1.POST("/scripts/cast", studioHdl.DetectCast)

		// 混音生成
		v1.POST("/studio/generate", studioHdl.Generate)
		v1.GET("/studio/mixdowns", studioHdl.ListMixdowns)
		v1.GET("/studio/mixdowns/:id", studioHdl.GetMixdown)

		// 音色库
		v1.GET("/voices", studioHdl.ListVoices)
		v1.PUT("/voices", studioHdl.BindVoice)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		// 关闭连接
		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

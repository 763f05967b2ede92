package di

import (
	"log"
	"time"

	"go.uber.org/dig"

	"querypilot/config"
	"querypilot/internal/apis/handlers"
	"querypilot/internal/constants"
	"querypilot/internal/observability"
	"querypilot/internal/services"
	"querypilot/pkg/dbmanager"
	"querypilot/pkg/llm"
	"querypilot/pkg/querycache"
	"querypilot/pkg/retry"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	// Connection pool manager
	if err := DiContainer.Provide(func() *dbmanager.Manager {
		return dbmanager.NewManager(dbmanager.PoolOptions{
			MaxClients:      config.Env.PoolMaxClients,
			AcquireTimeout:  config.Env.PoolAcquireTimeout,
			IdleTimeout:     config.Env.PoolIdleTimeout,
			CleanupInterval: config.Env.PoolCleanupInterval,
		})
	}); err != nil {
		log.Fatalf("Failed to provide DB manager: %v", err)
	}

	// Query result cache: Redis when a host is configured, in-memory otherwise
	if err := DiContainer.Provide(func() querycache.Store {
		cacheConfig := querycache.Config{
			Enabled:         config.Env.CacheEnabled,
			MaxSize:         config.Env.CacheMaxSize,
			MaxRows:         config.Env.CacheMaxRows,
			DefaultTTL:      config.Env.CacheTTL,
			CleanupInterval: config.Env.CacheCleanupInterval,
		}

		if config.Env.RedisHost != "" {
			store, err := querycache.NewRedisStore(cacheConfig,
				config.Env.RedisHost, config.Env.RedisPort,
				config.Env.RedisUsername, config.Env.RedisPassword)
			if err != nil {
				log.Printf("Warning: Failed to connect to Redis cache, using in-memory store: %v", err)
			} else {
				return store
			}
		}
		return querycache.NewMemoryStore(cacheConfig)
	}); err != nil {
		log.Fatalf("Failed to provide query cache: %v", err)
	}

	// LLM manager with the configured default client
	if err := DiContainer.Provide(func() *llm.Manager {
		manager := llm.NewManager()

		var clientConfig llm.Config
		switch config.Env.DefaultLLMClient {
		case constants.OpenAI:
			clientConfig = llm.Config{
				Provider:    constants.OpenAI,
				Model:       config.Env.OpenAIModel,
				APIKey:      config.Env.OpenAIAPIKey,
				MaxTokens:   config.Env.OpenAIMaxTokens,
				Temperature: config.Env.OpenAITemperature,
			}
		case constants.Gemini:
			clientConfig = llm.Config{
				Provider:    constants.Gemini,
				Model:       config.Env.GeminiModel,
				APIKey:      config.Env.GeminiAPIKey,
				MaxTokens:   config.Env.GeminiMaxTokens,
				Temperature: config.Env.GeminiTemperature,
			}
		default:
			clientConfig = llm.Config{Provider: constants.Deterministic}
		}

		if err := manager.RegisterClient(config.Env.DefaultLLMClient, clientConfig); err != nil {
			log.Printf("Warning: Failed to register %s client, registering deterministic fallback: %v",
				config.Env.DefaultLLMClient, err)
			config.Env.DefaultLLMClient = constants.Deterministic
			if err := manager.RegisterClient(constants.Deterministic, llm.Config{Provider: constants.Deterministic}); err != nil {
				log.Fatalf("Failed to register deterministic client: %v", err)
			}
		}
		return manager
	}); err != nil {
		log.Fatalf("Failed to provide LLM manager: %v", err)
	}

	// SQL generation pipeline
	if err := DiContainer.Provide(func(llmManager *llm.Manager) *llm.Pipeline {
		client, err := llmManager.GetClient(config.Env.DefaultLLMClient)
		if err != nil {
			log.Printf("Warning: Failed to get default LLM client: %v", err)
		}

		return llm.NewPipeline(client, llm.PipelineConfig{
			ValidateSQL:    &config.Env.LLMValidateSQL,
			OptimizeSchema: config.Env.SchemaReductionEnabled,
			MaxTables:      config.Env.SchemaReductionMaxTables,
			ExpandViaFKs:   config.Env.SchemaReductionIncludeFKs,
			RetryOptions:   retryOptionsFromEnv(),
		})
	}); err != nil {
		log.Fatalf("Failed to provide SQL generation pipeline: %v", err)
	}

	// Query service
	if err := DiContainer.Provide(func(
		dbManager *dbmanager.Manager,
		cache querycache.Store,
		pipeline *llm.Pipeline,
	) services.QueryService {
		return services.NewQueryService(dbManager, cache, pipeline, config.Env.CacheTTL)
	}); err != nil {
		log.Fatalf("Failed to provide query service: %v", err)
	}

	// Query handler
	if err := DiContainer.Provide(func(queryService services.QueryService) *handlers.QueryHandler {
		return handlers.NewQueryHandler(queryService)
	}); err != nil {
		log.Fatalf("Failed to provide query handler: %v", err)
	}
}

func retryOptionsFromEnv() retry.Options {
	return retry.Options{
		MaxAttempts:       config.Env.RetryMaxAttempts,
		InitialDelay:      config.Env.RetryInitialDelay,
		MaxDelay:          config.Env.RetryMaxDelay,
		BackoffMultiplier: config.Env.RetryBackoffMultiplier,
		OnRetry: func(err error, attempt int, delay time.Duration) {
			category := retry.Categorize(err)
			observability.IncrementRetryAttempt(string(category))
			log.Printf("Pipeline -> Generate -> attempt %d failed, retrying in %v: %s",
				attempt, delay, retry.Describe(err))
		},
	}
}

// GetQueryHandler retrieves the QueryHandler from the DI container
func GetQueryHandler() (*handlers.QueryHandler, error) {
	var handler *handlers.QueryHandler
	err := DiContainer.Invoke(func(h *handlers.QueryHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// Shutdown releases the container-owned resources
func Shutdown() {
	if DiContainer == nil {
		return
	}

	err := DiContainer.Invoke(func(dbManager *dbmanager.Manager, cache querycache.Store) {
		dbManager.Shutdown()
		if err := cache.Close(); err != nil {
			log.Printf("Failed to close query cache: %v", err)
		}
	})
	if err != nil {
		log.Printf("Failed to shut down container resources: %v", err)
	}
}

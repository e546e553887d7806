package cli

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/catalog"
	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/infra/memory"
	pgstore "quiz-session-engine/internal/infra/postgres"
	"quiz-session-engine/internal/infra/rabbitmq"
	infraredis "quiz-session-engine/internal/infra/redis"
	"quiz-session-engine/internal/infra/sqlite"
)

// catalogWriter stores quiz records in the configured backend.
type catalogWriter interface {
	PutQuiz(ctx context.Context, rec catalog.QuizRecord) error
}

// backend is the set of collaborators chosen from config.
type backend struct {
	loader   memory.QuizLoader
	catalog  catalogWriter
	attempts app.AttemptStore
	stats    app.StatsProvider
	quizzes  app.QuizRepository
	sessions app.SessionRepository
	closers  []func() error
}

func (b *backend) onClose(f func() error) {
	b.closers = append(b.closers, f)
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openStorage picks the quiz catalog and attempt store: Postgres when a URL
// is set, else SQLite when a path is set, else in-memory sample data.
func openStorage(ctx context.Context, cfg config.Config, b *backend) error {
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		b.onClose(func() error { pool.Close(); return nil })
		loader := pgstore.NewQuizLoader(pool)
		attempts := pgstore.NewAttemptStore(pool)
		b.loader, b.catalog, b.attempts, b.stats = loader, loader, attempts, attempts
		log.Printf("using postgres storage")
	case cfg.SQLite.Path != "":
		store, err := sqlite.OpenFile(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		b.onClose(store.Close)
		b.loader, b.catalog, b.attempts, b.stats = store, store, store, store
		log.Printf("using sqlite storage at %s", cfg.SQLite.Path)
	default:
		attempts := memory.NewAttemptStore()
		b.loader = memory.NewStaticQuizLoader(sampleQuizzes())
		b.attempts, b.stats = attempts, attempts
		log.Printf("using in-memory storage with sample quizzes")
	}
	return nil
}

// openBackend wires storage, caches and the attempt publisher.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}
	if err := openStorage(ctx, cfg, b); err != nil {
		b.Close()
		return nil, err
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.onClose(redisClient.Close)
		b.quizzes = infraredis.NewQuizRepository(redisClient, b.loader, quizTTL)
		b.sessions = infraredis.NewSessionStore(redisClient, redisTTL)
		best := infraredis.NewBestPercentageCache(redisClient, b.attempts, b.stats, redisTTL)
		b.attempts, b.stats = best, best
	} else {
		b.quizzes = memory.NewQuizRepository(b.loader, quizTTL)
		b.sessions = memory.NewSessionStore()
	}

	if cfg.RabbitMQ.URL != "" {
		client, err := rabbitmq.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.onClose(client.Close)
		b.attempts = rabbitmq.NewPublishingAttemptStore(b.attempts, client, cfg.RabbitMQ.Queue)
	}
	return b, nil
}

// sampleQuizzes provides a minimal catalog; configure postgres or sqlite in production.
func sampleQuizzes() map[string]catalog.QuizRecord {
	return map[string]catalog.QuizRecord{
		"quiz-1": {
			ID:         "quiz-1",
			Title:      "European geography",
			Category:   "geography",
			Difficulty: "easy",
			Published:  true,
			Questions: []catalog.QuestionRecord{
				{
					ID:               "q1",
					Type:             "multiple_choice",
					Text:             "What is the capital of France?",
					Points:           10,
					TimeLimitSeconds: 20,
					OrderIndex:       1,
					Options:          `["Paris","Lyon","Marseille"]`,
					CorrectAnswer:    "Paris",
					Explanation:      "Paris is the capital and largest city of France.",
				},
				{
					ID:         "q2",
					Type:       "map_click",
					Text:       "Click on France",
					Points:     10,
					OrderIndex: 2,
					MapData:    `{"target_region_id":"FR","target_country":"France","map_type":"europe","acceptable_regions":["FR"]}`,
				},
			},
		},
	}
}

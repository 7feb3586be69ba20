package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tariffledger/internal/db/migrations"
	mongostore "github.com/dmitrymomot/tariffledger/internal/store/mongo"
	"github.com/dmitrymomot/tariffledger/internal/store/postgres"
	"github.com/dmitrymomot/tariffledger/pkg/config"
	"github.com/dmitrymomot/tariffledger/pkg/httpserver"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/mongo"
	"github.com/dmitrymomot/tariffledger/pkg/pg"
	"github.com/dmitrymomot/tariffledger/pkg/redis"
)

// infra holds the storage chosen by appConfig and what it takes to
// release it.
type infra struct {
	repo     ledger.Repository
	invoices invoice.Store
	sequence invoice.Sequence
	checks   []httpserver.Check
	closers  []func()
}

func (i *infra) close() {
	for _, c := range slices.Backward(i.closers) {
		c()
	}
}

func connect(ctx context.Context, app appConfig, log *slog.Logger) (_ *infra, err error) {
	in := &infra{}
	defer func() {
		if err != nil {
			in.close()
		}
	}()

	needs := func(backend string) bool {
		return app.Storage == backend || app.invoiceStore() == backend || app.invoiceSequence() == backend
	}

	var pgStore *postgres.Store
	if needs(backendPostgres) {
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, pool.Close)
		in.checks = append(in.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})

		if cfg.MigrateOnStart {
			if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
				return nil, err
			}
		}
		pgStore = postgres.New(pool)
	}

	var redisClient *goredis.Client
	if needs(backendRedis) {
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = client.Close() })
		in.checks = append(in.checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
		redisClient = client
	}

	var mongoInvoices *mongostore.InvoiceStore
	if needs(backendMongo) {
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		db, err := mongo.ConnectDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client := db.Client()
		in.closers = append(in.closers, func() { _ = client.Disconnect(context.Background()) })
		in.checks = append(in.checks, httpserver.Check{Name: "mongo", Probe: mongo.Healthcheck(client)})

		mongoInvoices = mongostore.New(db)
		if err := mongoInvoices.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
	}

	switch app.Storage {
	case backendMemory:
		in.repo = ledger.NewMemoryRepository()
	case backendPostgres:
		in.repo = pgStore
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", app.Storage)
	}

	switch app.invoiceStore() {
	case backendMemory:
		in.invoices = invoice.NewMemoryStore()
	case backendPostgres:
		in.invoices = pgStore.Invoices()
	case backendMongo:
		in.invoices = mongoInvoices
	default:
		return nil, fmt.Errorf("unsupported INVOICE_STORE %q", app.invoiceStore())
	}

	switch app.invoiceSequence() {
	case backendMemory:
		in.sequence = invoice.NewMemorySequence()
	case backendPostgres:
		in.sequence = pgStore.Sequence()
	case backendRedis:
		in.sequence = invoice.NewRedisSequence(redisClient)
	default:
		return nil, fmt.Errorf("unsupported INVOICE_SEQUENCE %q", app.invoiceSequence())
	}

	return in, nil
}

// Package redis connects the service to Redis through
// github.com/redis/go-redis/v9.
//
// The client backs the shared invoice number sequence
// (invoice.NewRedisSequence), which keeps invoice numbers unique when several
// billing processes issue invoices for the same subject on the same day.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	seq := invoice.NewRedisSequence(client)
//
// Healthcheck adapts the client to httpserver.Check.
package redis

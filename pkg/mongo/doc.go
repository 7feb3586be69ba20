// Package mongo connects to MongoDB through go.mongodb.org/mongo-driver/v2.
//
// The billing service can keep invoices in MongoDB instead of PostgreSQL
// (see internal/store/mongo). ConnectDatabase opens the client, pings the
// primary with retries, and returns the configured database:
//
//	db, err := mongo.ConnectDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
package mongo

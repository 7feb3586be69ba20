// Package mongo keeps invoices in a MongoDB collection. It is an
// alternative to the PostgreSQL invoice store for deployments that archive
// billing documents in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	mongox "github.com/dmitrymomot/tariffledger/pkg/mongo"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// DefaultCollection is the collection name used by New.
const DefaultCollection = "invoices"

const maxUpdateAttempts = 5

// ErrConflict is returned when an update kept losing to concurrent writers.
var ErrConflict = errors.New("invoice was modified concurrently")

type document struct {
	Number     string     `bson:"_id"`
	SubjectID  string     `bson:"subject_id"`
	TariffCode string     `bson:"tariff_code"`
	Period     string     `bson:"period"`
	Amount     int64      `bson:"amount"`
	Currency   string     `bson:"currency"`
	Status     string     `bson:"status"`
	IssuedAt   time.Time  `bson:"issued_at"`
	DueAt      time.Time  `bson:"due_at"`
	PaidAt     *time.Time `bson:"paid_at,omitempty"`
	PaymentID  string     `bson:"payment_id,omitempty"`
	Version    int64      `bson:"version"`
}

// InvoiceStore implements invoice.Store. Updates use optimistic concurrency
// on a version field, so no server-side transactions are required.
type InvoiceStore struct {
	coll *mongo.Collection
}

var _ invoice.Store = (*InvoiceStore)(nil)

// New returns a store over db.Collection(DefaultCollection).
func New(db *mongo.Database) *InvoiceStore {
	if db == nil {
		panic("mongo: database is required")
	}
	return &InvoiceStore{coll: db.Collection(DefaultCollection)}
}

// EnsureIndexes creates the lookup indexes. Safe to call on every start.
func (s *InvoiceStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "issued_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "issued_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create invoice indexes: %w", err)
	}
	return nil
}

func (s *InvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if _, err := s.coll.InsertOne(ctx, toDocument(inv, 1)); err != nil {
		if mongox.IsDuplicateKey(err) {
			return invoice.ErrDuplicateNumber
		}
		return errors.Join(invoice.ErrFailedToSave, err)
	}
	return nil
}

func (s *InvoiceStore) Get(ctx context.Context, number string) (*invoice.Invoice, error) {
	doc, err := s.load(ctx, number)
	if err != nil {
		return nil, err
	}
	return doc.invoice(), nil
}

func (s *InvoiceStore) ListBySubject(ctx context.Context, subjectID string) ([]*invoice.Invoice, error) {
	return s.find(ctx, bson.D{{Key: "subject_id", Value: subjectID}})
}

func (s *InvoiceStore) ListByStatus(ctx context.Context, status invoice.Status) ([]*invoice.Invoice, error) {
	return s.find(ctx, bson.D{{Key: "status", Value: string(status)}})
}

// Update re-reads and retries when another writer bumped the version
// between the read and the conditional replace.
func (s *InvoiceStore) Update(ctx context.Context, number string, fn func(*invoice.Invoice) error) (*invoice.Invoice, error) {
	for range maxUpdateAttempts {
		doc, err := s.load(ctx, number)
		if err != nil {
			return nil, err
		}

		inv := doc.invoice()
		if err := fn(inv); err != nil {
			return nil, err
		}

		res, err := s.coll.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: number}, {Key: "version", Value: doc.Version}},
			toDocument(inv, doc.Version+1),
		)
		if err != nil {
			return nil, errors.Join(invoice.ErrFailedToSave, err)
		}
		if res.MatchedCount == 1 {
			return inv, nil
		}
	}
	return nil, errors.Join(invoice.ErrFailedToSave, ErrConflict)
}

func (s *InvoiceStore) load(ctx context.Context, number string) (*document, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: number}}).Decode(&doc)
	if err != nil {
		if mongox.IsNotFound(err) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &doc, nil
}

func (s *InvoiceStore) find(ctx context.Context, filter bson.D) ([]*invoice.Invoice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "issued_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find invoices: %w", err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}

	out := make([]*invoice.Invoice, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].invoice())
	}
	return out, nil
}

func toDocument(inv *invoice.Invoice, version int64) document {
	currency := inv.Amount.Currency
	if currency == "" {
		currency = tariff.DefaultCurrency
	}
	return document{
		Number:     inv.Number,
		SubjectID:  inv.SubjectID,
		TariffCode: inv.TariffCode,
		Period:     string(inv.Period),
		Amount:     inv.Amount.Amount,
		Currency:   currency,
		Status:     string(inv.Status),
		IssuedAt:   inv.IssuedAt,
		DueAt:      inv.DueAt,
		PaidAt:     inv.PaidAt,
		PaymentID:  inv.PaymentID,
		Version:    version,
	}
}

func (d *document) invoice() *invoice.Invoice {
	inv := &invoice.Invoice{
		Number:     d.Number,
		SubjectID:  d.SubjectID,
		TariffCode: d.TariffCode,
		Period:     tariff.Period(d.Period),
		Amount:     tariff.Money{Amount: d.Amount, Currency: d.Currency},
		Status:     invoice.Status(d.Status),
		IssuedAt:   d.IssuedAt.UTC(),
		DueAt:      d.DueAt.UTC(),
		PaymentID:  d.PaymentID,
	}
	if d.PaidAt != nil {
		at := d.PaidAt.UTC()
		inv.PaidAt = &at
	}
	return inv
}

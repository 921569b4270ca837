package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

type orderDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OrderID       string             `bson:"order_id"`
	Amount        string             `bson:"amount"`
	Currency      string             `bson:"currency"`
	Customer      customerDocument   `bson:"customer_data"`
	Items         []itemDocument     `bson:"order_items"`
	PaymentMethod string             `bson:"payment_method"`
	Status        string             `bson:"status"`
	CreatedAt     time.Time          `bson:"created_at"`
	DeliveredAt   *time.Time         `bson:"delivered_at,omitempty"`
}

type customerDocument struct {
	Name     string `bson:"name"`
	Phone    string `bson:"phone"`
	Email    string `bson:"email,omitempty"`
	Address  string `bson:"address"`
	Landmark string `bson:"landmark,omitempty"`
	Pincode  string `bson:"pincode"`
}

type itemDocument struct {
	Name     string `bson:"name"`
	Quantity int    `bson:"quantity"`
	Price    string `bson:"price"`
}

// MongoStore keeps one document per order in the orders collection. Money is
// stored as decimal strings so no precision is lost to float64.
type MongoStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	collection := db.Collection("orders")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return nil, mongoErr("create indexes", err)
	}

	return &MongoStore{collection: collection, now: time.Now}, nil
}

func (s *MongoStore) Submit(ctx context.Context, order *domain.Order) (string, error) {
	if err := prepare(order, s.now()); err != nil {
		return "", err
	}
	// Mongo keeps millisecond precision.
	order.CreatedAt = order.CreatedAt.Truncate(time.Millisecond)

	if _, err := s.collection.InsertOne(ctx, toOrderDocument(order)); err != nil {
		return "", mongoErr("insert order", err)
	}
	return order.ID, nil
}

func (s *MongoStore) List(ctx context.Context) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "order_id", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongoErr("list orders", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	orders := []domain.Order{}
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		order, err := toOrder(&doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := cursor.Err(); err != nil {
		return nil, mongoErr("list orders", err)
	}
	return orders, nil
}

func (s *MongoStore) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	now := s.now().UTC().Truncate(time.Millisecond)

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"order_id": id, "status": bson.M{"$ne": string(domain.OrderStatusDelivered)}},
		bson.M{"$set": bson.M{"status": string(domain.OrderStatusDelivered), "delivered_at": now}},
	)
	if err != nil {
		return nil, mongoErr("mark delivered", err)
	}

	var doc orderDocument
	err = s.collection.FindOne(ctx, bson.M{"order_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, mongoErr("get order", err)
	}
	return toOrder(&doc)
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"order_id": id})
	if err != nil {
		return mongoErr("delete order", err)
	}
	if result.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *MongoStore) Reset(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{})
	return mongoErr("reset orders", err)
}

func toOrderDocument(order *domain.Order) *orderDocument {
	doc := &orderDocument{
		OrderID:  order.ID,
		Amount:   order.Amount.String(),
		Currency: order.Currency,
		Customer: customerDocument{
			Name:     order.Customer.Name,
			Phone:    order.Customer.Phone,
			Email:    order.Customer.Email,
			Address:  order.Customer.Address,
			Landmark: order.Customer.Landmark,
			Pincode:  order.Customer.Pincode,
		},
		Items:         make([]itemDocument, len(order.Items)),
		PaymentMethod: string(order.PaymentMethod),
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
		DeliveredAt:   order.DeliveredAt,
	}

	for i, item := range order.Items {
		doc.Items[i] = itemDocument{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price.String(),
		}
	}

	return doc
}

func toOrder(doc *orderDocument) (*domain.Order, error) {
	amount, err := decimal.NewFromString(doc.Amount)
	if err != nil {
		return nil, fmt.Errorf("decode amount for %s: %w", doc.OrderID, err)
	}

	items := make([]domain.OrderItem, len(doc.Items))
	for i, item := range doc.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("decode item price for %s: %w", doc.OrderID, err)
		}
		items[i] = domain.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    price,
		}
	}

	order := &domain.Order{
		ID:       doc.OrderID,
		Amount:   amount,
		Currency: doc.Currency,
		Customer: domain.CustomerProfile{
			Name:     doc.Customer.Name,
			Phone:    doc.Customer.Phone,
			Email:    doc.Customer.Email,
			Address:  doc.Customer.Address,
			Landmark: doc.Customer.Landmark,
			Pincode:  doc.Customer.Pincode,
		},
		Items:         items,
		PaymentMethod: domain.PaymentMethod(doc.PaymentMethod),
		Status:        domain.OrderStatus(doc.Status),
		CreatedAt:     doc.CreatedAt.UTC(),
	}
	if doc.DeliveredAt != nil {
		t := doc.DeliveredAt.UTC()
		order.DeliveredAt = &t
	}
	return order, nil
}

func mongoErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

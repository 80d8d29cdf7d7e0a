package orders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/aws"
)

// Condition expressions used against the orders table.
const (
	condCreate  = "attribute_not_exists(order_id)"
	condVersion = "version = :expected"
	condNewer   = "attribute_not_exists(order_id) OR version < :v"
)

// DefaultUpdateAttempts bounds compare-and-swap retries before ErrConflict.
const DefaultUpdateAttempts = 3

// DynamoStore is a Repository on a DynamoDB table keyed by order_id. Updates are
// optimistic: read, mutate, then PutItem conditioned on the version that was read.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	attempts  int
	nowFunc   func() time.Time
}

// NewDynamoStore creates a new orders store on tableName.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		attempts:  DefaultUpdateAttempts,
		nowFunc:   time.Now,
	}
}

func (s *DynamoStore) Create(ctx context.Context, o Order) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: aws.String(condCreate),
	})
	if err != nil {
		if aws.IsConditionalCheckFailed(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, o.OrderID)
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Get fetches an order by order_id with a strongly consistent read.
func (s *DynamoStore) Get(ctx context.Context, orderID string) (Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return Order{}, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return Order{}, fmt.Errorf("unmarshal order: %w", err)
	}
	return o, nil
}

// Update retries the read-modify-write when another writer bumped the version first.
func (s *DynamoStore) Update(ctx context.Context, orderID string, fn Mutation) (Order, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		current, err := s.Get(ctx, orderID)
		if err != nil {
			return Order{}, err
		}

		working := current.Clone()
		changed, err := fn(&working)
		if err != nil {
			return current, err
		}
		if !changed {
			return current, nil
		}
		working.OrderID = current.OrderID
		working.CreatedAt = current.CreatedAt
		working.UpdatedAt = nextUpdatedAt(current.UpdatedAt, s.nowFunc())
		working.Version = current.Version + 1

		err = s.put(ctx, working, condVersion, map[string]types.AttributeValue{
			":expected": versionValue(current.Version),
		})
		if err == nil {
			return working, nil
		}
		if !aws.IsConditionalCheckFailed(err) {
			return Order{}, err
		}
	}
	return Order{}, fmt.Errorf("%w: order %s after %d attempts", ErrConflict, orderID, s.attempts)
}

// Save writes o unless the table already holds the same or a newer version, in which
// case it returns ErrConflict. It is the mirror write path.
func (s *DynamoStore) Save(ctx context.Context, o Order) error {
	err := s.put(ctx, o, condNewer, map[string]types.AttributeValue{
		":v": versionValue(o.Version),
	})
	if err != nil && aws.IsConditionalCheckFailed(err) {
		return fmt.Errorf("%w: order %s already at version %d or later", ErrConflict, o.OrderID, o.Version)
	}
	return err
}

// List scans the table and filters in process. The table is expected to stay small.
func (s *DynamoStore) List(ctx context.Context, f Filter) ([]Order, error) {
	out := []Order{}
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: startKey,
			ConsistentRead:    boolPtr(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var batch []Order
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		for _, o := range batch {
			if f.Match(o) {
				out = append(out, o)
			}
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *DynamoStore) put(ctx context.Context, o Order, cond string, values map[string]types.AttributeValue) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                 &s.tableName,
		Item:                      item,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func versionValue(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func boolPtr(b bool) *bool { return &b }

// Package dynamostore implements store.Store on a DynamoDB table.
//
// Conditional semantics map directly onto DynamoDB condition expressions:
// PutIfAbsent uses attribute_not_exists on the partition key and
// DeleteIfExists uses attribute_exists, so atomicity is enforced by the
// table itself rather than by any check performed in this process.
package dynamostore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-user-service/store"
)

const pkAttribute = "pk"

// Client is the subset of the DynamoDB API the store uses. *dynamodb.Client
// satisfies it; tests supply a fake.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ store.Store = (*DynamoStore)(nil)

// record is the table item shape: partition key plus the opaque value blob.
type record struct {
	PK    string `dynamodbav:"pk"`
	Value []byte `dynamodbav:"val"`
}

type DynamoStore struct {
	client Client
	table  string
}

func New(client Client, table string) (*DynamoStore, error) {
	if client == nil {
		return nil, errors.New("[dynamostore.New] client is required")
	}
	if table == "" {
		return nil, errors.New("[dynamostore.New] table name is required")
	}
	return &DynamoStore{client: client, table: table}, nil
}

func (ds *DynamoStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(ds.table),
		Key:            ds.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[DynamoStore.Get] GetItem")
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}

	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, errors.Wrap(err, "[DynamoStore.Get] unmarshal item")
	}
	return rec.Value, nil
}

func (ds *DynamoStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	item, err := attributevalue.MarshalMap(record{PK: key, Value: value})
	if err != nil {
		return errors.Wrap(err, "[DynamoStore.PutIfAbsent] marshal item")
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(ds.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(" + pkAttribute + ")"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return store.ErrAlreadyExists
		}
		return errors.Wrap(err, "[DynamoStore.PutIfAbsent] PutItem")
	}
	return nil
}

func (ds *DynamoStore) DeleteIfExists(ctx context.Context, key string) error {
	_, err := ds.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(ds.table),
		Key:                 ds.itemKey(key),
		ConditionExpression: aws.String("attribute_exists(" + pkAttribute + ")"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return store.ErrNotFound
		}
		return errors.Wrap(err, "[DynamoStore.DeleteIfExists] DeleteItem")
	}
	return nil
}

func (ds *DynamoStore) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkAttribute: &types.AttributeValueMemberS{Value: key},
	}
}

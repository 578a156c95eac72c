package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the part of the DynamoDB client DynamoStore uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore keeps memory in a table keyed by the string attribute
// user_id, with the document JSON-encoded in the data attribute.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	if table == "" {
		table = DefaultTable
	}
	return &DynamoStore{client: client, table: table}
}

func (s *DynamoStore) Save(ctx context.Context, userID string, data Data) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
			"data":    &types.AttributeValueMemberS{Value: string(encoded)},
		},
	})
	if err != nil {
		return fmt.Errorf("put memory for %s: %w", userID, err)
	}
	return nil
}

func (s *DynamoStore) Load(ctx context.Context, userID string) (Data, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get memory for %s: %w", userID, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	attr, ok := out.Item["data"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("memory for %s has no string data attribute", userID)
	}
	var data Data
	if err := json.Unmarshal([]byte(attr.Value), &data); err != nil {
		return nil, fmt.Errorf("decode memory for %s: %w", userID, err)
	}
	return data, nil
}

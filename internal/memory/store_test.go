package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
	table string
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.table = aws.ToString(in.TableName)
	id := in.Item["user_id"].(*types.AttributeValueMemberS).Value
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["user_id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "memory", "memory.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"dynamo": NewDynamoStore(&fakeDynamo{items: map[string]map[string]types.AttributeValue{}}, ""),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Load(ctx, "u1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Load() error = %v, want ErrNotFound", err)
			}

			if err := store.Save(ctx, "u1", Data{"major": "CS", "skills": []any{"go"}}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if err := store.Save(ctx, "u1", Data{"major": "EE"}); err != nil {
				t.Fatalf("Save() overwrite error = %v", err)
			}

			got, err := store.Load(ctx, "u1")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got["major"] != "EE" {
				t.Fatalf("major = %v", got["major"])
			}
			if _, ok := got["skills"]; ok {
				t.Fatalf("save did not replace document: %v", got)
			}

			if err := store.Save(ctx, " ", Data{}); !errors.Is(err, ErrEmptyUserID) {
				t.Fatalf("Save() empty id error = %v", err)
			}
		})
	}
}

func TestDynamoStoreUsesTable(t *testing.T) {
	fake := &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
	store := NewDynamoStore(fake, "")
	if err := store.Save(context.Background(), "u", Data{"a": 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if fake.table != DefaultTable {
		t.Fatalf("table = %q", fake.table)
	}
	data := fake.items["u"]["data"].(*types.AttributeValueMemberS).Value
	if data != `{"a":1}` {
		t.Fatalf("data attribute = %q", data)
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
)

const (
	dynamoKeyAttr  = "pk"
	dynamoDataAttr = "data"
	dynamoNodePref = "node#"
	dynamoMetaKey  = "meta"
	// BatchWriteItem accepts at most 25 requests.
	dynamoBatchLimit = 25
	dynamoMaxRetries = 8
	// DynamoDB rejects items above 400 KB, names and values included.
	dynamoMaxItemSize = 400 * 1024
)

// ErrRecordTooLarge is returned when a record exceeds the backend's item
// size limit.
var ErrRecordTooLarge = errors.New("record exceeds item size limit")

// DynamoStore keeps one item per node in a single-key table.
type DynamoStore struct {
	Client *dynamodb.Client
	Table  string
}

func NewDynamoStore(cfg aws.Config, table string) *DynamoStore {
	return &DynamoStore{
		Client: dynamodb.NewFromConfig(cfg),
		Table:  table,
	}
}

// EnsureTable creates the table on demand and waits until it is active.
func (s *DynamoStore) EnsureTable(ctx context.Context) error {
	_, err := s.Client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.Table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(dynamoKeyAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(dynamoKeyAttr), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var apiErr smithy.APIError
		if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "ResourceInUseException" {
			return fmt.Errorf("create table %s: %w", s.Table, err)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(s.Client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.Table)}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", s.Table, err)
	}
	return nil
}

func dynamoNodeKey(id graph.NodeID) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: dynamoNodePref + nodeKey(id)}
}

func (s *DynamoStore) WriteRecords(ctx context.Context, recs []Record) error {
	reqs := make([]types.WriteRequest, 0, len(recs))
	for _, rec := range recs {
		val, err := EncodeRecord(rec)
		if err != nil {
			return err
		}
		key := dynamoNodePref + nodeKey(rec.Node)
		if size := len(dynamoKeyAttr) + len(key) + len(dynamoDataAttr) + len(val); size > dynamoMaxItemSize {
			return fmt.Errorf("%w: node %d encodes to %d bytes (%d out, %d in hubs), limit %d",
				ErrRecordTooLarge, rec.Node, size, len(rec.Out), len(rec.In), dynamoMaxItemSize)
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{
			Item: map[string]types.AttributeValue{
				dynamoKeyAttr:  &types.AttributeValueMemberS{Value: key},
				dynamoDataAttr: &types.AttributeValueMemberB{Value: val},
			},
		}})
	}
	return s.batchWrite(ctx, reqs)
}

// batchWrite sends reqs in chunks, resubmitting unprocessed items with
// exponential backoff.
func (s *DynamoStore) batchWrite(ctx context.Context, reqs []types.WriteRequest) error {
	for start := 0; start < len(reqs); start += dynamoBatchLimit {
		pending := reqs[start:min(start+dynamoBatchLimit, len(reqs))]
		backoff := 50 * time.Millisecond

		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt == dynamoMaxRetries {
				return fmt.Errorf("batch write to %s: %d items unprocessed after %d attempts", s.Table, len(pending), attempt)
			}
			out, err := s.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.Table: pending},
			})
			if err != nil {
				return fmt.Errorf("batch write to %s: %w", s.Table, err)
			}
			pending = out.UnprocessedItems[s.Table]
			if len(pending) == 0 {
				break
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil
}

func (s *DynamoStore) getData(ctx context.Context, key types.AttributeValue) ([]byte, bool, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Table),
		Key:            map[string]types.AttributeValue{dynamoKeyAttr: key},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, err
	}
	if out.Item == nil {
		return nil, false, nil
	}
	data, ok := out.Item[dynamoDataAttr].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, fmt.Errorf("item has no binary %q attribute", dynamoDataAttr)
	}
	return data.Value, true, nil
}

func (s *DynamoStore) ReadRecord(ctx context.Context, id graph.NodeID) (Record, bool, error) {
	data, ok, err := s.getData(ctx, dynamoNodeKey(id))
	if err != nil {
		return Record{}, false, fmt.Errorf("read record %d: %w", id, err)
	}
	if !ok {
		return Record{}, false, nil
	}
	rec, err := DecodeRecord(id, data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *DynamoStore) ClearRecords(ctx context.Context) error {
	paginator := dynamodb.NewScanPaginator(s.Client, &dynamodb.ScanInput{
		TableName:            aws.String(s.Table),
		ProjectionExpression: aws.String("#k"),
		FilterExpression:     aws.String("begins_with(#k, :p)"),
		ExpressionAttributeNames: map[string]string{
			"#k": dynamoKeyAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: dynamoNodePref},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("scan %s: %w", s.Table, err)
		}
		reqs := make([]types.WriteRequest, 0, len(page.Items))
		for _, item := range page.Items {
			reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{dynamoKeyAttr: item[dynamoKeyAttr]},
			}})
		}
		if err := s.batchWrite(ctx, reqs); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoStore) ReadMetadata(ctx context.Context) (Metadata, error) {
	data, ok, err := s.getData(ctx, &types.AttributeValueMemberS{Value: dynamoMetaKey})
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	if !ok {
		return Metadata{}, nil
	}
	return decodeMetadata(data)
}

func (s *DynamoStore) WriteMetadata(ctx context.Context, m Metadata) error {
	data, err := encodeMetadata(m)
	if err != nil {
		return err
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Table),
		Item: map[string]types.AttributeValue{
			dynamoKeyAttr:  &types.AttributeValueMemberS{Value: dynamoMetaKey},
			dynamoDataAttr: &types.AttributeValueMemberB{Value: data},
		},
	})
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func (s *DynamoStore) Close() error { return nil }

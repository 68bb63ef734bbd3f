package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	skPrefixScenario = "SCN#"
	ttlDuration      = 30 * 24 * time.Hour // 30-day TTL
	maxTransactItems = 100

	// sortKeyLayout is fixed width so keys sort lexically in time order.
	sortKeyLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoHistory.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoHistory keeps per-user history in a single DynamoDB table keyed by
// PK=USER#<id> and SK=SCN#<timestamp>. Items expire after 30 days.
type DynamoHistory struct {
	api       dynamodbAPI
	tableName string
	size      int
	now       func() time.Time
}

// NewDynamoHistory creates a DynamoDB-backed History.
func NewDynamoHistory(api dynamodbAPI, tableName string, size int) (*DynamoHistory, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &DynamoHistory{api: api, tableName: tableName, size: size, now: time.Now}, nil
}

// userPK returns the DynamoDB partition key for a user.
func userPK(userID string) string {
	return "USER#" + userID
}

// scenarioSK returns the sort key for a scenario written at ts.
func scenarioSK(ts time.Time) string {
	return skPrefixScenario + ts.UTC().Format(sortKeyLayout)
}

// Append writes entry and then evicts the user's oldest items beyond the
// configured size.
func (c *DynamoHistory) Append(ctx context.Context, userID, entry string) error {
	if strings.TrimSpace(userID) == "" {
		return errEmptyUserID
	}
	now := c.now().UTC()
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK":        &types.AttributeValueMemberS{Value: scenarioSK(now)},
			"userId":    &types.AttributeValueMemberS{Value: userID},
			"entry":     &types.AttributeValueMemberS{Value: entry},
			"createdAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			"ttl":       &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(ttlDuration).Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: Append put item: %w", err)
	}
	if err := c.evict(ctx, userID); err != nil {
		return fmt.Errorf("repository: Append: %w", err)
	}
	return nil
}

// evict deletes every item older than the newest c.size items.
func (c *DynamoHistory) evict(ctx context.Context, userID string) error {
	var (
		keys     []string
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := c.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(c.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
				":prefix": &types.AttributeValueMemberS{Value: skPrefixScenario},
			},
			ProjectionExpression: aws.String("SK"),
			ScanIndexForward:     aws.Bool(false),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return fmt.Errorf("evict query: %w", err)
		}
		for _, item := range out.Items {
			sk, err := strAttr(item, "SK")
			if err != nil {
				return fmt.Errorf("evict decode: %w", err)
			}
			keys = append(keys, sk)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	if len(keys) <= c.size {
		return nil
	}

	stale := keys[c.size:]
	for len(stale) > 0 {
		n := min(len(stale), maxTransactItems)
		items := make([]types.TransactWriteItem, 0, n)
		for _, sk := range stale[:n] {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(c.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
						"SK": &types.AttributeValueMemberS{Value: sk},
					},
				},
			})
		}
		if _, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
			return fmt.Errorf("evict delete: %w", err)
		}
		stale = stale[n:]
	}
	return nil
}

// Recent queries the newest items for a user and returns them oldest first.
func (c *DynamoHistory) Recent(ctx context.Context, userID string) ([]string, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixScenario},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(c.size)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Recent query: %w", err)
	}

	entries := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		entry, err := strAttr(item, "entry")
		if err != nil {
			return nil, fmt.Errorf("repository: Recent unmarshal: %w", err)
		}
		entries = append(entries, entry)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

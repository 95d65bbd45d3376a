package dynamo

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
	"github.com/aws/smithy-go"

	"aligner-bot/internal/apperr"
	"aligner-bot/internal/models"
	"aligner-bot/internal/store"
)

const (
	pkPrefix     = "PART#"
	skProfile    = "PROFILE"
	skKudoPrefix = "KUDO#"
)

// dynamodbAPI is the minimal DynamoDB interface required by Repository.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Repository keeps participants and their kudos in one table. A participant
// lives at (PART#<telegram id>, PROFILE) and each kudo at
// (PART#<telegram id>, KUDO#<date>#<unix nanos>), so one Query reads a day.
type Repository struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

var _ store.Repository = (*Repository)(nil)

func New(api dynamodbAPI, tableName string) (*Repository, error) {
	if api == nil {
		return nil, errors.New("dynamo: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamo: table name must not be empty")
	}
	return &Repository{api: api, tableName: tableName, now: time.Now}, nil
}

func participantPK(participantID string) string {
	return pkPrefix + participantID
}

func (r *Repository) FindParticipant(ctx context.Context, telegramID int64) (*models.Participant, error) {
	id := strconv.FormatInt(telegramID, 10)
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: participantPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("dynamo: find participant", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}
	p, err := itemToParticipant(out.Item)
	if err != nil {
		return nil, apperr.New(apperr.StoreUnavailable, "dynamo: find participant", err)
	}
	return &p, nil
}

// CreateParticipant writes the profile only if none exists; a lost race
// returns the stored profile.
func (r *Repository) CreateParticipant(ctx context.Context, p models.Participant) (*models.Participant, error) {
	p.ID = strconv.FormatInt(p.TelegramID, 10)
	p.CreatedAt = r.now().UTC()

	_, err := r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                participantItem(p),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return r.FindParticipant(ctx, p.TelegramID)
	}
	if err != nil {
		return nil, classify("dynamo: create participant", err)
	}
	return &p, nil
}

func (r *Repository) ListKudos(ctx context.Context, participantID string) ([]models.Kudo, error) {
	return r.queryKudos(ctx, "dynamo: list kudos", participantID, skKudoPrefix)
}

func (r *Repository) ListKudosForDay(ctx context.Context, participantID, date string) ([]models.Kudo, error) {
	return r.queryKudos(ctx, "dynamo: list kudos for day", participantID, skKudoPrefix+date+"#")
}

func (r *Repository) CreateKudo(ctx context.Context, k models.Kudo) (*models.Kudo, error) {
	now := r.now().UTC()
	k.ID = fmt.Sprintf("%s%s#%d", skKudoPrefix, k.Date, now.UnixNano())
	k.CreatedAt = now

	_, err := r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                kudoItem(k),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return nil, classify("dynamo: create kudo", err)
	}
	return &k, nil
}

func (r *Repository) queryKudos(ctx context.Context, op, participantID, prefix string) ([]models.Kudo, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: participantPK(participantID)},
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
		ScanIndexForward: aws.Bool(true),
		ConsistentRead:   aws.Bool(true),
	}

	var kudos []models.Kudo
	for {
		out, err := r.api.Query(ctx, in)
		if err != nil {
			return nil, classify(op, err)
		}
		for _, item := range out.Items {
			k, err := itemToKudo(item)
			if err != nil {
				return nil, apperr.New(apperr.StoreUnavailable, op, err)
			}
			kudos = append(kudos, k)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return kudos, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException",
			"InvalidSignatureException", "ExpiredTokenException":
			return apperr.New(apperr.StoreAuthFailed, op, err)
		}
	}
	return apperr.New(apperr.StoreUnavailable, op, err)
}

func participantItem(p models.Participant) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: participantPK(p.ID)},
		"SK":         &types.AttributeValueMemberS{Value: skProfile},
		"telegramId": &types.AttributeValueMemberN{Value: strconv.FormatInt(p.TelegramID, 10)},
		"handle":     &types.AttributeValueMemberS{Value: p.Handle},
		"name":       &types.AttributeValueMemberS{Value: p.Name},
		"createdAt":  &types.AttributeValueMemberS{Value: p.CreatedAt.Format(time.RFC3339Nano)},
	}
}

func kudoItem(k models.Kudo) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: participantPK(k.ParticipantID)},
		"SK":        &types.AttributeValueMemberS{Value: k.ID},
		"recipient": &types.AttributeValueMemberS{Value: k.RecipientHandle},
		"date":      &types.AttributeValueMemberS{Value: k.Date},
		"createdAt": &types.AttributeValueMemberS{Value: k.CreatedAt.Format(time.RFC3339Nano)},
	}
}

func itemToParticipant(item map[string]types.AttributeValue) (models.Participant, error) {
	tgID, err := intAttr(item, "telegramId")
	if err != nil {
		return models.Participant{}, err
	}
	name, err := strAttr(item, "name")
	if err != nil {
		return models.Participant{}, err
	}
	handle, _ := strAttr(item, "handle")
	created, _ := strAttr(item, "createdAt")
	createdAt, _ := time.Parse(time.RFC3339Nano, created)

	return models.Participant{
		ID:         strconv.FormatInt(tgID, 10),
		TelegramID: tgID,
		Handle:     handle,
		Name:       name,
		CreatedAt:  createdAt,
	}, nil
}

func itemToKudo(item map[string]types.AttributeValue) (models.Kudo, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return models.Kudo{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return models.Kudo{}, err
	}
	recipient, err := strAttr(item, "recipient")
	if err != nil {
		return models.Kudo{}, err
	}
	date, err := strAttr(item, "date")
	if err != nil {
		return models.Kudo{}, err
	}
	created, _ := strAttr(item, "createdAt")
	createdAt, _ := time.Parse(time.RFC3339Nano, created)

	return models.Kudo{
		ID:              sk,
		ParticipantID:   strings.TrimPrefix(pk, pkPrefix),
		RecipientHandle: recipient,
		Date:            date,
		CreatedAt:       createdAt,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("dynamo: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamo: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("dynamo: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("dynamo: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("dynamo: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"genforge-core/internal/domain/entity"
	"genforge-core/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantCache stores accepted generations keyed by prompt embedding so that
// equivalent requests can be answered without calling a provider.
type QdrantCache struct {
	client         *qdrant.Client
	collectionName string
	ttl            time.Duration
	logger         *zap.Logger
}

func NewQdrantCache(client *qdrant.Client, collectionName string, ttl time.Duration, logger *zap.Logger) *QdrantCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QdrantCache{
		client:         client,
		collectionName: collectionName,
		ttl:            ttl,
		logger:         logger,
	}
}

func (s *QdrantCache) InitCollection(ctx context.Context, dim uint64) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		st, ok := status.FromError(err)
		if ok && st.Code() == codes.NotFound {
			err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
				CollectionName: s.collectionName,
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
					Size:     dim,
					Distance: qdrant.Distance_Cosine,
				}),
			})
			if err != nil {
				return fmt.Errorf("failed to create collection: %w", err)
			}
		} else {
			return err
		}
	}

	// Payload indexes for the freshness and function filters.
	indexes := map[string]qdrant.FieldType{
		"created_at":    qdrant.FieldType_FieldTypeInteger,
		"function_name": qdrant.FieldType_FieldTypeKeyword,
	}
	for field, fieldType := range indexes {
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collectionName,
			FieldName:      field,
			FieldType:      fieldType.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			// Log but don't fail if index already exists
			s.logger.Warn("could not create payload index", zap.String("field", field), zap.Error(err))
		}
	}

	return nil
}

func (s *QdrantCache) Search(ctx context.Context, vector []float32, threshold float32, functionName string) (*repository.CachedResult, error) {
	freshSince := time.Now().Add(-s.ttl).Unix()
	mustConditions := []*qdrant.Condition{
		qdrant.NewMatch("function_name", functionName),
		{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "created_at",
					Range: &qdrant.Range{
						Gte: qdrant.PtrOf(float64(freshSince)),
					},
				},
			},
		},
	}

	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         &qdrant.Filter{Must: mustConditions},
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: &threshold,
	})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}

	hit := res[0]
	payload := hit.Payload

	var data map[string]any
	if err := json.Unmarshal([]byte(payload["data"].GetStringValue()), &data); err != nil {
		return nil, fmt.Errorf("decode cached payload: %w", err)
	}

	return &repository.CachedResult{
		Prompt: payload["prompt"].GetStringValue(),
		Score:  hit.Score,
		Result: &entity.GenerationResult{
			RequestID:  payload["request_id"].GetStringValue(),
			Success:    true,
			Data:       data,
			Provider:   entity.Tier(payload["provider"].GetStringValue()),
			Attempts:   1,
			Confidence: payload["confidence"].GetDoubleValue(),
		},
	}, nil
}

func (s *QdrantCache) Save(ctx context.Context, req entity.GenerationRequest, result *entity.GenerationResult, vector []float32) error {
	data, err := json.Marshal(result.Data)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"prompt":        req.Prompt,
		"function_name": req.FunctionName,
		"data":          string(data),
		"provider":      string(result.Provider),
		"confidence":    result.Confidence,
		"request_id":    result.RequestID,
		"created_at":    time.Now().Unix(), // Store as Unix integer
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(uuid.NewString()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	return err
}

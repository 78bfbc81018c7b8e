// Package vectorstore indexes finished trip plans in Qdrant so new requests
// can surface the closest past trip.
package vectorstore

import (
	"context"
	"fmt"
	"sync"

	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/halcyard/windrose/internal/embedding"
)

const tripCollection = "windrose_trips"

// Config holds connection settings for a Qdrant instance.
type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// TripIndex stores one point per finished plan, payload carrying the plan
// headline. It satisfies both the recall and the indexing side of the
// planning pipeline.
type TripIndex struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	embed       embedding.Provider
	logger      *zap.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewTripIndex dials the Qdrant gRPC endpoint. The collection itself is
// created lazily on first use.
func NewTripIndex(cfg Config, embed embedding.Provider, logger *zap.Logger) (*TripIndex, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect %s: %w", addr, err)
	}
	return &TripIndex{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		embed:       embed,
		logger:      logger,
	}, nil
}

func (ti *TripIndex) ensure(ctx context.Context) error {
	ti.ensureOnce.Do(func() {
		_, err := ti.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: tripCollection})
		if err == nil {
			return
		}
		_, err = ti.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: tripCollection,
			VectorsConfig: &pb.VectorsConfig{
				Config: &pb.VectorsConfig_Params{
					Params: &pb.VectorParams{
						Size:     uint64(ti.embed.Dimension()),
						Distance: pb.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			ti.ensureErr = fmt.Errorf("create collection %s: %w", tripCollection, err)
		}
	})
	return ti.ensureErr
}

// IndexTrip embeds the plan headline and upserts it under the plan ID.
func (ti *TripIndex) IndexTrip(ctx context.Context, id, text string) error {
	if err := ti.ensure(ctx); err != nil {
		return err
	}
	vectors, err := ti.embed.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed trip %s: %w", id, err)
	}
	_, err = ti.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: tripCollection,
		Points: []*pb.PointStruct{
			{
				Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}},
				Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vectors[0]}}},
				Payload: map[string]*pb.Value{
					"headline": {Kind: &pb.Value_StringValue{StringValue: text}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert trip %s: %w", id, err)
	}
	ti.logger.Debug("Trip indexed", zap.String("id", id))
	return nil
}

// Similar returns the headlines of the closest indexed trips.
func (ti *TripIndex) Similar(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}
	if err := ti.ensure(ctx); err != nil {
		return nil, err
	}
	vectors, err := ti.embed.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	resp, err := ti.points.Search(ctx, &pb.SearchPoints{
		CollectionName: tripCollection,
		Vector:         vectors[0],
		Limit:          uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", tripCollection, err)
	}
	headlines := make([]string, 0, len(resp.Result))
	for _, r := range resp.Result {
		if v, ok := r.Payload["headline"]; ok {
			if sv, ok := v.Kind.(*pb.Value_StringValue); ok {
				headlines = append(headlines, sv.StringValue)
			}
		}
	}
	return headlines, nil
}

// Close tears down the gRPC connection.
func (ti *TripIndex) Close() error {
	return ti.conn.Close()
}

package vector

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantIndex implements Index using Qdrant.
type QdrantIndex struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
}

// NewQdrant creates a Qdrant-backed index.
func NewQdrant(ctx context.Context, host string, port int, collection string) (*QdrantIndex, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &QdrantIndex{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: collection,
	}, nil
}

func (r *QdrantIndex) Upsert(ctx context.Context, entries []Entry) error {
	points := make([]*pb.PointStruct, len(entries))
	for i, e := range entries {
		payload := map[string]*pb.Value{
			"text":     {Kind: &pb.Value_StringValue{StringValue: e.Text}},
			"category": {Kind: &pb.Value_StringValue{StringValue: e.Category}},
			"question": {Kind: &pb.Value_StringValue{StringValue: e.Question}},
			"kind":     {Kind: &pb.Value_StringValue{StringValue: e.Kind}},
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: e.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: e.Vector}}},
			Payload: payload,
		}
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	return err
}

func (r *QdrantIndex) Search(ctx context.Context, vec []float32, topK int) ([]SearchResult, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vec,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(resp.Result))
	for i, pt := range resp.Result {
		r := SearchResult{ID: pt.Id.GetUuid(), Score: pt.Score}
		for k, v := range pt.Payload {
			switch k {
			case "text":
				r.Text = v.GetStringValue()
			case "category":
				r.Category = v.GetStringValue()
			case "question":
				r.Question = v.GetStringValue()
			case "kind":
				r.Kind = v.GetStringValue()
			}
		}
		results[i] = r
	}
	return results, nil
}

func (r *QdrantIndex) Close() error {
	return r.conn.Close()
}

var _ Index = (*QdrantIndex)(nil)

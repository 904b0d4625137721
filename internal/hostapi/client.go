package hostapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/task"
)

// #region client-struct
// Client reports results to and resolves resources from a task host. It
// satisfies task.Reporter and task.ResourceResolver.
type Client struct {
	conn   *grpc.ClientConn
	client TaskHostClient
}

// #endregion client-struct

// #region constructor
// NewClient connects to a task host.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewTaskHostClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc TaskHostClient) *Client {
	return &Client{client: svc}
}

// #endregion constructor

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #region submit-result
// SubmitResult sends the scoring record as a flat name to number struct.
func (c *Client) SubmitResult(ctx context.Context, r eval.Result) error {
	fields := make(map[string]interface{}, 4)
	for name, v := range r.Map() {
		fields[name] = v
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if _, err := c.client.SubmitResult(ctx, msg); err != nil {
		return fmt.Errorf("submit result rpc: %w", err)
	}
	return nil
}

// #endregion submit-result

// #region get-resource
// GetResource resolves a preloaded resource id.
func (c *Client) GetResource(ctx context.Context, id string) (task.Resource, error) {
	resp, err := c.client.GetResource(ctx, wrapperspb.String(id))
	if err != nil {
		return task.Resource{}, fmt.Errorf("get resource rpc: %w", err)
	}
	fields := resp.GetFields()
	return task.Resource{
		ID:  fields["id"].GetStringValue(),
		Src: fields["src"].GetStringValue(),
	}, nil
}

// #endregion get-resource

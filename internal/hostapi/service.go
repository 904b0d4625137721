// Package hostapi speaks the host task API over gRPC. The service is small
// enough that its descriptor is declared here directly; messages are the
// protobuf well-known types.
package hostapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region service
const (
	ServiceName = "kio.TaskHost"

	submitResultMethod = "/kio.TaskHost/SubmitResult"
	getResourceMethod  = "/kio.TaskHost/GetResource"
)

// TaskHostServer is implemented by hosts that run jeep tasks.
type TaskHostServer interface {
	// SubmitResult receives the flat parameter record of the latest update.
	SubmitResult(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// GetResource resolves a preloaded resource id to {id, src}.
	GetResource(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// TaskHostClient is the client side of TaskHostServer.
type TaskHostClient interface {
	SubmitResult(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetResource(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type taskHostClient struct {
	cc grpc.ClientConnInterface
}

// NewTaskHostClient wraps a connection.
func NewTaskHostClient(cc grpc.ClientConnInterface) TaskHostClient {
	return &taskHostClient{cc: cc}
}

func (c *taskHostClient) SubmitResult(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, submitResultMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *taskHostClient) GetResource(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getResourceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service

// #region registration
// RegisterTaskHostServer registers srv on s.
func RegisterTaskHostServer(s grpc.ServiceRegistrar, srv TaskHostServer) {
	s.RegisterService(&TaskHostServiceDesc, srv)
}

// TaskHostServiceDesc describes kio.TaskHost.
var TaskHostServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TaskHostServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitResult", Handler: submitResultHandler},
		{MethodName: "GetResource", Handler: getResourceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kio/task_host.proto",
}

func submitResultHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TaskHostServer).SubmitResult(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitResultMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TaskHostServer).SubmitResult(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getResourceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TaskHostServer).GetResource(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getResourceMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TaskHostServer).GetResource(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion registration

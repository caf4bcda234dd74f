package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AllocationServiceName is the fully qualified gRPC service name.
const AllocationServiceName = "stockledger.v1.AllocationService"

// AllocationServiceServer is the server API for AllocationService. Messages
// are google.protobuf.Struct documents whose keys follow the JSON field names
// of the domain types.
type AllocationServiceServer interface {
	Issue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Amend(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkExhausted(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedAllocationServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedAllocationServiceServer struct{}

func (UnimplementedAllocationServiceServer) Issue(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Issue not implemented")
}
func (UnimplementedAllocationServiceServer) Amend(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Amend not implemented")
}
func (UnimplementedAllocationServiceServer) Delete(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedAllocationServiceServer) MarkExhausted(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkExhausted not implemented")
}
func (UnimplementedAllocationServiceServer) Get(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedAllocationServiceServer) List(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}

type unaryCall func(AllocationServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	fullMethod := "/" + AllocationServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AllocationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AllocationServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AllocationServiceDesc is the grpc.ServiceDesc for AllocationService.
var AllocationServiceDesc = grpc.ServiceDesc{
	ServiceName: AllocationServiceName,
	HandlerType: (*AllocationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Issue", Handler: unaryHandler("Issue", AllocationServiceServer.Issue)},
		{MethodName: "Amend", Handler: unaryHandler("Amend", AllocationServiceServer.Amend)},
		{MethodName: "Delete", Handler: unaryHandler("Delete", AllocationServiceServer.Delete)},
		{MethodName: "MarkExhausted", Handler: unaryHandler("MarkExhausted", AllocationServiceServer.MarkExhausted)},
		{MethodName: "Get", Handler: unaryHandler("Get", AllocationServiceServer.Get)},
		{MethodName: "List", Handler: unaryHandler("List", AllocationServiceServer.List)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stockledger/v1/allocation.proto",
}

func RegisterAllocationServiceServer(s grpc.ServiceRegistrar, srv AllocationServiceServer) {
	s.RegisterService(&AllocationServiceDesc, srv)
}

// AllocationServiceClient invokes AllocationService over a client connection.
type AllocationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAllocationServiceClient(cc grpc.ClientConnInterface) *AllocationServiceClient {
	return &AllocationServiceClient{cc: cc}
}

// Call invokes method (e.g. "Issue") with in and returns the response document.
func (c *AllocationServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+AllocationServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Messages are
// structpb.Struct values so no generated code is needed.
const ServiceName = "summary.v1.ExtractionService"

// ExtractionServiceServer is the server API.
type ExtractionServiceServer interface {
	Parse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Enqueue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedExtractionServiceServer can be embedded for forward compatibility.
type UnimplementedExtractionServiceServer struct{}

func (UnimplementedExtractionServiceServer) Parse(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Parse not implemented")
}
func (UnimplementedExtractionServiceServer) Validate(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Validate not implemented")
}
func (UnimplementedExtractionServiceServer) History(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method History not implemented")
}
func (UnimplementedExtractionServiceServer) IngestFile(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method IngestFile not implemented")
}
func (UnimplementedExtractionServiceServer) IngestDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method IngestDirectory not implemented")
}
func (UnimplementedExtractionServiceServer) Enqueue(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Enqueue not implemented")
}
func (UnimplementedExtractionServiceServer) ExportHistory(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ExportHistory not implemented")
}

func RegisterExtractionServiceServer(s grpc.ServiceRegistrar, srv ExtractionServiceServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

type unaryMethod func(ExtractionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func method(name string, call unaryMethod) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ExtractionServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ExtractionServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("Parse", ExtractionServiceServer.Parse),
		method("Validate", ExtractionServiceServer.Validate),
		method("History", ExtractionServiceServer.History),
		method("IngestFile", ExtractionServiceServer.IngestFile),
		method("IngestDirectory", ExtractionServiceServer.IngestDirectory),
		method("Enqueue", ExtractionServiceServer.Enqueue),
		method("ExportHistory", ExtractionServiceServer.ExportHistory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "summary/v1/extraction.proto",
}

// ExtractionClient calls the service over any client connection.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

// Call invokes method with in encoded as a Struct.
func (c *ExtractionClient) Call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) Parse(ctx context.Context, name, content, format string) (*structpb.Struct, error) {
	return c.Call(ctx, "Parse", map[string]any{"name": name, "content": content, "format": format})
}

func (c *ExtractionClient) Validate(ctx context.Context, content string) (*structpb.Struct, error) {
	return c.Call(ctx, "Validate", map[string]any{"content": content})
}

func (c *ExtractionClient) History(ctx context.Context, limit int) (*structpb.Struct, error) {
	return c.Call(ctx, "History", map[string]any{"limit": limit})
}

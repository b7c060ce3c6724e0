package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "rbkv.v1.KV"

// KVServer is the server API of rbkv.v1.KV. Messages are protobuf
// well-known types, so no generated code is needed.
type KVServer interface {
	// Put takes a codec.Mutation with op put, encoded in a BytesValue.
	Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.UInt64Value, error)
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Delete(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error)
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Verify(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

func RegisterKVServer(s grpc.ServiceRegistrar, srv KVServer) {
	s.RegisterService(&kvServiceDesc, srv)
}

var kvServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*KVServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Put",
			Handler: unary("Put", func(s KVServer, ctx context.Context, in *wrapperspb.BytesValue) (any, error) {
				return s.Put(ctx, in)
			}),
		},
		{
			MethodName: "Get",
			Handler: unary("Get", func(s KVServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Get(ctx, in)
			}),
		},
		{
			MethodName: "Delete",
			Handler: unary("Delete", func(s KVServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Delete(ctx, in)
			}),
		},
		{
			MethodName: "Stats",
			Handler: unary("Stats", func(s KVServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Stats(ctx, in)
			}),
		},
		{
			MethodName: "Verify",
			Handler: unary("Verify", func(s KVServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Verify(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rbkv/v1/kv.proto",
}

func fullMethod(name string) string { return "/" + serviceName + "/" + name }

type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

// unary adapts a typed call into the handler shape grpc.MethodDesc expects,
// the same way protoc-gen-go-grpc output does.
func unary[Req any](name string, call func(KVServer, context.Context, *Req) (any, error)) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(KVServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(name),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(KVServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

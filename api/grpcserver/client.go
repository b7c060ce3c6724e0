package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbkv/infra/codec"
	"rbkv/service"
)

// Client is a typed client for rbkv.v1.KV.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Put(ctx context.Context, key string, value []byte, opts ...grpc.CallOption) (uint64, error) {
	m := codec.Mutation{Op: codec.OpPut, Key: key, Value: value}
	in := wrapperspb.Bytes(m.Marshal())
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, fullMethod("Put"), in, out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

// Get returns a NotFound status error for a missing key.
func (c *Client) Get(ctx context.Context, key string, opts ...grpc.CallOption) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, fullMethod("Get"), wrapperspb.String(key), out, opts...); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *Client) Delete(ctx context.Context, key string, opts ...grpc.CallOption) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, fullMethod("Delete"), wrapperspb.String(key), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) Stats(ctx context.Context, opts ...grpc.CallOption) (service.Stats, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Stats"), &emptypb.Empty{}, out, opts...); err != nil {
		return service.Stats{}, err
	}
	f := out.GetFields()
	return service.Stats{
		Len:    int(f["len"].GetNumberValue()),
		Height: int(f["height"].GetNumberValue()),
	}, nil
}

func (c *Client) Verify(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod("Verify"), &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

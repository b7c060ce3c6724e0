package grpcserver

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbkv/domain/redblack"
	"rbkv/infra/codec"
	"rbkv/infra/sequence"
	entrywal "rbkv/infra/wal/entry"
	"rbkv/service"
)

func startServer(t *testing.T) *Client {
	t.Helper()

	ew, err := entrywal.Open(entrywal.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	svc := service.NewStoreService(redblack.NewOrdered[string, []byte](), sequence.New(0), ew, nil, nil, nil)

	lis := bufconn.Listen(1 << 20)
	gs := NewServer(svc, nil).Register()
	go func() { _ = gs.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		gs.Stop()
		_ = ew.Close()
	})
	return NewClient(conn)
}

func TestPutGetDeleteOverGRPC(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	seq, err := c.Put(ctx, "alpha", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	v, err := c.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	seq, err = c.Delete(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)

	_, err = c.Get(ctx, "alpha")
	assert.Equal(t, codes.NotFound, status.Code(err))

	seq, err = c.Delete(ctx, "alpha")
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestStatsAndVerify(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	for i := range 7 {
		_, err := c.Put(ctx, fmt.Sprintf("k%d", i+1), nil)
		require.NoError(t, err)
	}

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, st.Len)
	assert.LessOrEqual(t, st.Height, 4)

	require.NoError(t, c.Verify(ctx))
}

func TestInvalidArguments(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	_, err := c.Put(ctx, "", []byte("x"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Delete(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = c.cc.Invoke(ctx, fullMethod("Put"), wrapperspb.Bytes([]byte{0xff}), new(wrapperspb.UInt64Value))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	del := codec.Mutation{Op: codec.OpDelete, Key: "k"}
	err = c.cc.Invoke(ctx, fullMethod("Put"), wrapperspb.Bytes(del.Marshal()), new(wrapperspb.UInt64Value))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestBinaryValuesRoundTrip(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	values := map[string][]byte{
		"bin":   {0x00, 0xff, 0xfe, 0x80},
		"empty": {},
		"text":  []byte("héllo"),
	}
	for k, v := range values {
		_, err := c.Put(ctx, k, v)
		require.NoError(t, err)
	}
	for k, want := range values {
		got, err := c.Get(ctx, k)
		require.NoError(t, err, k)
		assert.Equal(t, len(want), len(got), k)
		if len(want) > 0 {
			assert.Equal(t, want, got, k)
		}
	}
}

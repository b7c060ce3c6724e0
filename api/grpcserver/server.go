// Package grpcserver exposes StoreService as the rbkv.v1.KV gRPC service.
package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbkv/infra/codec"
	"rbkv/service"
)

// Server adapts StoreService to gRPC.
type Server struct {
	svc    *service.StoreService
	logger *slog.Logger
}

var _ KVServer = (*Server)(nil)

func NewServer(svc *service.StoreService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger.With("component", "grpc")}
}

// Register creates a grpc.Server serving s, with request logging.
func (s *Server) Register(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.logRequests))
	gs := grpc.NewServer(opts...)
	RegisterKVServer(gs, s)
	return gs
}

// -------------------- Commands --------------------

func (s *Server) Put(_ context.Context, req *wrapperspb.BytesValue) (*wrapperspb.UInt64Value, error) {
	var m codec.Mutation
	if err := m.Unmarshal(req.GetValue()); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode put: %v", err)
	}
	if m.Op != codec.OpPut {
		return nil, status.Errorf(codes.InvalidArgument, "put carries op %s", m.Op)
	}
	if m.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	seq, err := s.svc.Put(m.Key, m.Value)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "put %q: %v", m.Key, err)
	}
	return wrapperspb.UInt64(seq), nil
}

func (s *Server) Delete(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}
	seq, err := s.svc.Delete(req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "delete %q: %v", req.GetValue(), err)
	}
	return wrapperspb.UInt64(seq), nil
}

// -------------------- Queries --------------------

func (s *Server) Get(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	v, ok := s.svc.Get(req.GetValue())
	if !ok {
		return nil, status.Errorf(codes.NotFound, "key %q not found", req.GetValue())
	}
	return wrapperspb.Bytes(v), nil
}

func (s *Server) Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	st := s.svc.Stats()
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"len":    structpb.NewNumberValue(float64(st.Len)),
		"height": structpb.NewNumberValue(float64(st.Height)),
	}}, nil
}

func (s *Server) Verify(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.svc.Verify(); err != nil {
		s.logger.Error("tree verification failed", "err", err)
		return nil, status.Errorf(codes.Internal, "verify: %v", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) logRequests(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("rpc",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"took", time.Since(start),
	)
	return resp, err
}

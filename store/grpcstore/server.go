package grpcstore

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/chewton2k/Imprint/keys"
	"github.com/chewton2k/Imprint/signing"
	"github.com/chewton2k/Imprint/store"
)

// Server exposes a store.Store over the RecordStore gRPC service.
//
// Delete enforces the action-authorization protocol here, against the
// stored record's public key and this server's clock.
type Server struct {
	UnimplementedRecordStoreServer
	Store store.Store

	// Clock defaults to the real clock when nil.
	Clock signing.Clock
}

func (s *Server) clock() signing.Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return signing.RealClock{}
}

func (s *Server) Create(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	r, err := unmarshalRecord(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "undecodable record")
	}
	id, err := s.Store.Create(ctx, r)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(id), nil
}

func (s *Server) FindByID(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	r, err := s.Store.FindByID(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := marshalRecord(r)
	if err != nil {
		return nil, status.Error(codes.Internal, "record encoding failed")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) FindByContentHash(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	rs, err := s.Store.FindByContentHash(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := marshalRecords(rs)
	if err != nil {
		return nil, status.Error(codes.Internal, "record encoding failed")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) FindAllWithPerceptualHash(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	rs, err := s.Store.FindAllWithPerceptualHash(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := marshalRecords(rs)
	if err != nil {
		return nil, status.Error(codes.Internal, "record encoding failed")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Delete(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	var req deleteRequest
	if err := decodeDeleteRequest(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "undecodable delete request")
	}

	r, err := s.Store.FindByID(ctx, req.ID)
	if err != nil {
		return nil, mapErr(err)
	}
	pub, err := keys.ParsePublicHex(r.PublicKey)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := signing.VerifyAction(signing.ActionDelete, req.ID, req.Proof, pub, s.clock()); err != nil {
		return nil, mapErr(err)
	}
	if req.VerifyOnly {
		return wrapperspb.Bool(true), nil
	}
	if err := s.Store.Delete(ctx, req.ID); err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(true), nil
}

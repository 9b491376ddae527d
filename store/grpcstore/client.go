package grpcstore

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/signing"
)

// Client talks to a remote RecordStore. It implements the read and create
// halves of the store contract; deletion is only available through
// DeleteAuthorized because the server requires a proof.
type Client struct {
	cc     *grpc.ClientConn
	client RecordStoreClient

	// Timeout applies per RPC when non-zero and the caller's context has
	// no earlier deadline.
	Timeout time.Duration
}

// DialOptions configures Dial.
type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

// Dial connects to a RecordStore server over an insecure channel.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		// The deadline only binds connection establishment when the dial
		// blocks until the channel is ready.
		dialOpts = append(dialOpts, grpc.WithBlock())
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewRecordStoreClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Create(ctx context.Context, r *model.ProvenanceRecord) (string, error) {
	b, err := marshalRecord(r)
	if err != nil {
		return "", err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Create(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return "", mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) FindByID(ctx context.Context, id string) (*model.ProvenanceRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.FindByID(ctx, wrapperspb.String(id))
	if err != nil {
		return nil, mapRPC(err)
	}
	return unmarshalRecord(reply.GetValue())
}

func (c *Client) FindByContentHash(ctx context.Context, contentHash string) ([]*model.ProvenanceRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.FindByContentHash(ctx, wrapperspb.String(contentHash))
	if err != nil {
		return nil, mapRPC(err)
	}
	return unmarshalRecords(reply.GetValue())
}

func (c *Client) FindAllWithPerceptualHash(ctx context.Context) ([]*model.ProvenanceRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.FindAllWithPerceptualHash(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, mapRPC(err)
	}
	return unmarshalRecords(reply.GetValue())
}

// DeleteAuthorized submits a signature-authorized deletion. With verifyOnly
// the server runs the signature and window checks but keeps the record,
// letting a caller confirm authorization before an irreversible step.
func (c *Client) DeleteAuthorized(ctx context.Context, id string, proof signing.ActionProof, verifyOnly bool) error {
	b, err := encodeDeleteRequest(&deleteRequest{ID: id, Proof: proof, VerifyOnly: verifyOnly})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	_, err = c.client.Delete(ctx, wrapperspb.Bytes(b))
	return mapRPC(err)
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

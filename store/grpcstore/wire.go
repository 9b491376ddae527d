package grpcstore

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/signing"
)

// deleteRequest is the CBOR body of the Delete RPC. The proof is verified
// server-side against the stored record's public key.
type deleteRequest struct {
	ID         string              `cbor:"id"`
	Proof      signing.ActionProof `cbor:"proof"`
	VerifyOnly bool                `cbor:"verify_only"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err) // static options; cannot fail
	}
	return em
}()

func encodeDeleteRequest(req *deleteRequest) ([]byte, error) {
	return encMode.Marshal(req)
}

func decodeDeleteRequest(b []byte, req *deleteRequest) error {
	return cbor.Unmarshal(b, req)
}

func marshalRecord(r *model.ProvenanceRecord) ([]byte, error) {
	return encMode.Marshal(r)
}

func unmarshalRecord(b []byte) (*model.ProvenanceRecord, error) {
	var r model.ProvenanceRecord
	if err := cbor.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func marshalRecords(rs []*model.ProvenanceRecord) ([]byte, error) {
	return encMode.Marshal(rs)
}

func unmarshalRecords(b []byte) ([]*model.ProvenanceRecord, error) {
	var rs []*model.ProvenanceRecord
	if err := cbor.Unmarshal(b, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

package signing

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/chewton2k/Imprint/model"
)

// ActionDelete is the only destructive action the protocol currently
// defines.
const ActionDelete = "delete"

// ActionWindow bounds replay exposure: an authorization is valid only while
// |now - claimed timestamp| stays within it.
//
// There is no nonce or used-timestamp ledger, so a captured proof remains
// replayable until the window closes.
const ActionWindow = 5 * time.Minute

// Clock abstracts time retrieval so the authorization window is
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ActionProof is a short-lived, signature-backed claim that the key holder
// currently intends a specific action on a specific resource.
type ActionProof struct {
	TimestampMillis int64  `cbor:"timestamp_ms" json:"timestamp_ms"`
	Signature       string `cbor:"signature" json:"signature"`
}

// ActionMessage is the exact byte string an action authorization signs:
// "<action>:<resourceID>:<unixTimeMillis>". The verifier recomputes it
// rather than accepting it from the caller.
func ActionMessage(action, resourceID string, unixMillis int64) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", action, resourceID, unixMillis))
}

// SignAction authorizes action on resourceID at the clock's current time.
func SignAction(action, resourceID string, privateKey ed25519.PrivateKey, clock Clock) (ActionProof, error) {
	if clock == nil {
		clock = RealClock{}
	}
	ts := clock.Now().UnixMilli()
	sig, err := SignEd25519(ActionMessage(action, resourceID, ts), DefaultHashAlg, privateKey)
	if err != nil {
		return ActionProof{}, err
	}
	return ActionProof{TimestampMillis: ts, Signature: sig}, nil
}

// VerifyAction recomputes the action message from the claimed resource and
// timestamp and checks the proof against the resource's stored public key.
//
// Ownership of the key and freshness of the intent are separate failures:
// a bad signature is SIGNATURE_INVALID, a stale-but-valid one is
// ACTION_EXPIRED, so callers can message a simple retry for the latter.
func VerifyAction(action, resourceID string, proof ActionProof, publicKey ed25519.PublicKey, clock Clock) error {
	if clock == nil {
		clock = RealClock{}
	}
	msg := ActionMessage(action, resourceID, proof.TimestampMillis)
	if !VerifyEd25519(msg, DefaultHashAlg, proof.Signature, publicKey) {
		return model.NewError(model.ErrSignatureInvalid,
			fmt.Sprintf("authorization signature for %s %s did not verify", action, resourceID))
	}

	claimed := time.UnixMilli(proof.TimestampMillis)
	drift := clock.Now().Sub(claimed)
	if drift < 0 {
		drift = -drift
	}
	if drift > ActionWindow {
		return model.NewError(model.ErrActionExpired,
			fmt.Sprintf("authorization timestamp is %s from server time, window is %s", drift, ActionWindow))
	}
	return nil
}

// Copyright 2026 The CodeChain-Go Authors

package crypto

import (
	"crypto/ecdsa"

	"github.com/vechain/go-ecvrf"
)

// vrfSuite is the ECVRF-SECP256K1-SHA256-TAI suite: it reuses the
// same secp256k1 key material as transaction and PoA seal signatures,
// so a validator does not need a second key scheme just to run the
// leader-seed VRF.
var vrfSuite = ecvrf.Secp256k1Sha256Tai

// ProveVRF evaluates the VRF under sk over msg (conventionally
// prev_seed||height||view), returning the 32-byte output hash and its
// proof.
func ProveVRF(sk *ecdsa.PrivateKey, msg []byte) (hash, proof []byte, err error) {
	return vrfSuite.Prove(sk, msg)
}

// VerifyVRF checks that proof is a valid VRF proof by pub over msg,
// and that it produces the declared hash.
func VerifyVRF(pub *ecdsa.PublicKey, msg, hash, proof []byte) (bool, error) {
	got, err := vrfSuite.Verify(pub, msg, proof)
	if err != nil {
		return false, nil
	}
	return bytesEqual(got, hash), nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

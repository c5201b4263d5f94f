// Copyright 2026 The CodeChain-Go Authors

package p2p

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/golang/snappy"

	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Tag identifies a top-level wire message's variant.
type Tag uint8

const (
	TagSync1 Tag = iota + 1
	TagSync2
	TagAck
	TagNack
	TagEncrypted
	TagUnencrypted
)

// Sync1 is the handshake initiator's first message.
type Sync1 struct {
	InitiatorPub []byte
	NetworkID    types.NetworkID
	Port         uint16
}

// Sync2 is sent by the recipient back to the initiator once it has
// derived its own half of the ECDH agreement.
type Sync2 struct {
	InitiatorPub []byte
	RecipientPub []byte
	NetworkID    types.NetworkID
	Port         uint16
}

// Ack completes the handshake, carrying the recipient's nonce
// encrypted under the just-derived session secret so the initiator's
// first framed message can be verified to come from a party who
// actually computed the same ECDH point.
type Ack struct {
	RecipientPub   []byte
	EncryptedNonce []byte
}

// Nack rejects a handshake attempt (mismatched network id, filtered
// peer, already connected).
type Nack struct {
	Reason string
}

// ExtensionFrame is one extension-dispatched payload, either
// encrypted under the connection's Session or sent in the clear. Name
// routes it to a registered Extension by name.
type ExtensionFrame struct {
	Name      string
	Encrypted bool
	Payload   []byte
}

// MaxFrameSize bounds a single length-prefixed frame. It needs to be
// at least 128 KB to tolerate an 800-validator BFT seal (≈51 KB); this
// sets real headroom above that so a full committee's seal never
// comes close to the ceiling.
const MaxFrameSize = 256 * 1024

// ErrFrameTooLarge is returned decoding a length prefix that exceeds
// MaxFrameSize.
var ErrFrameTooLarge = errors.New("p2p: frame exceeds MaxFrameSize")

// WriteFrame writes a length-prefixed RLP frame: tag byte, then a
// big-endian uint32 length, then the RLP payload.
func WriteFrame(w io.Writer, tag Tag, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	header := make([]byte, 5)
	header[0] = byte(tag)
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame, rejecting a declared
// length over MaxFrameSize before ever allocating a buffer for it (a
// malicious peer's oversized length prefix should not itself be a
// memory-exhaustion vector).
func ReadFrame(r io.Reader) (Tag, []byte, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(header[1:])
	if n > MaxFrameSize {
		return 0, nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return Tag(header[0]), payload, nil
}

// EncodeSync1 / EncodeSync2 / EncodeAck / EncodeNack RLP-encode the
// handshake messages for WriteFrame.
func EncodeSync1(m *Sync1) ([]byte, error) { return rlp.Encode(m) }
func EncodeSync2(m *Sync2) ([]byte, error) { return rlp.Encode(m) }
func EncodeAck(m *Ack) ([]byte, error) { return rlp.Encode(m) }
func EncodeNack(m *Nack) ([]byte, error) { return rlp.Encode(m) }

func DecodeSync1(data []byte) (*Sync1, error) {
	var m Sync1
	if err := rlp.Decode(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func DecodeSync2(data []byte) (*Sync2, error) {
	var m Sync2
	if err := rlp.Decode(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func DecodeAck(data []byte) (*Ack, error) {
	var m Ack
	if err := rlp.Decode(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func DecodeNack(data []byte) (*Nack, error) {
	var m Nack
	if err := rlp.Decode(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// rlpExtensionFrame mirrors ExtensionFrame for wire encoding.
type rlpExtensionFrame struct {
	Name      string
	Encrypted bool
	Payload   []byte
}

// EncodeExtensionFrame encodes f for WriteFrame under TagEncrypted or
// TagUnencrypted depending on f.Encrypted.
func EncodeExtensionFrame(f *ExtensionFrame) (Tag, []byte, error) {
	raw, err := rlp.Encode(&rlpExtensionFrame{Name: f.Name, Encrypted: f.Encrypted, Payload: f.Payload})
	if err != nil {
		return 0, nil, err
	}
	if f.Encrypted {
		return TagEncrypted, raw, nil
	}
	return TagUnencrypted, raw, nil
}

// DecodeExtensionFrame parses an extension frame's payload.
func DecodeExtensionFrame(data []byte) (*ExtensionFrame, error) {
	var raw rlpExtensionFrame
	if err := rlp.Decode(data, &raw); err != nil {
		return nil, err
	}
	return &ExtensionFrame{Name: raw.Name, Encrypted: raw.Encrypted, Payload: raw.Payload}, nil
}

// Headers requests up to 128 headers starting at StartNumber.
type Headers struct {
	StartNumber uint64
	MaxCount    uint32
}

// MaxHeadersPerRequest caps MaxCount at 128 per request.
const MaxHeadersPerRequest = 128

// Bodies requests block bodies by hash.
type Bodies struct {
	Hashes []types.Hash
}

// StateChunk requests snapshot chunks of block_hash by chunk root.
type StateChunk struct {
	BlockHash types.Hash
	ChunkRoot []types.Hash
}

// CompressBody snappy-compresses a block body or state chunk payload
// before it goes out over the wire.
func CompressBody(raw []byte) []byte {
	return snappy.Encode(nil, raw)
}

// ErrCompressionFormat is returned decompressing a body frame whose
// declared size exceeds the decompression limit.
var ErrCompressionFormat = errors.New("p2p: invalid compression format")

// MaxDecompressedBodySize bounds how large a single decompressed body
// frame may be: four times MaxFrameSize.
const MaxDecompressedBodySize = MaxFrameSize * 4

// DecompressBody reverses CompressBody, rejecting an oversized result
// before it is ever materialized in full.
func DecompressBody(compressed []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(compressed)
	if err != nil {
		return nil, ErrCompressionFormat
	}
	if n > MaxDecompressedBodySize {
		return nil, ErrCompressionFormat
	}
	out, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, ErrCompressionFormat
	}
	return out, nil
}

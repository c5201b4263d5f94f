// Copyright 2026 The CodeChain-Go Authors

package types

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// PlatformAddress is the network-tagged bech32-style account address:
// a bech32 string whose human-readable part is the network id and
// whose data carries (version, account_address). version=0 is the
// legacy one-argument constructor,
// whose network id is supplied out of band by the caller rather than
// carried in the string; version=1 carries the network explicitly and
// is what every address this node formats uses going forward. Parsing
// accepts both.
type PlatformAddress struct {
	Version uint8
	Network NetworkID
	Account Address
}

// ErrUnsupportedAddressVersion is returned decoding a payload whose
// version byte this module does not understand.
var ErrUnsupportedAddressVersion = errors.New("types: unsupported platform address version")

// NewPlatformAddress builds a version-1 address: the network id is
// carried explicitly in the encoded string.
func NewPlatformAddress(network NetworkID, account Address) PlatformAddress {
	return PlatformAddress{Version: 1, Network: network, Account: account}
}

// String bech32-encodes the address, using the network id as the
// human-readable part and version||account as the data payload.
func (a PlatformAddress) String() string {
	payload := make([]byte, 0, 1+len(a.Account))
	payload = append(payload, a.Version)
	payload = append(payload, a.Account[:]...)

	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		// payload length is fixed at compile time; ConvertBits only
		// fails on malformed input.
		panic(err)
	}
	encoded, err := bech32.Encode(a.Network.String(), data)
	if err != nil {
		panic(err)
	}
	return encoded
}

// ParsePlatformAddress decodes a bech32 platform address. defaultNetwork
// is used for version-0 addresses, whose human-readable part does not
// reliably carry the network (the legacy one-argument constructor
// hard-coded it at format time); version-1 addresses are checked
// against the hrp directly.
func ParsePlatformAddress(s string, defaultNetwork NetworkID) (PlatformAddress, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return PlatformAddress{}, fmt.Errorf("decode bech32: %w", err)
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return PlatformAddress{}, fmt.Errorf("convert bech32 payload: %w", err)
	}
	if len(payload) != 1+len(Address{}) {
		return PlatformAddress{}, fmt.Errorf("types: platform address payload has length %d, want %d", len(payload), 1+len(Address{}))
	}

	version := payload[0]
	var account Address
	copy(account[:], payload[1:])

	switch version {
	case 0:
		return PlatformAddress{Version: 0, Network: defaultNetwork, Account: account}, nil
	case 1:
		return PlatformAddress{Version: 1, Network: NewNetworkID(hrp), Account: account}, nil
	default:
		return PlatformAddress{}, ErrUnsupportedAddressVersion
	}
}

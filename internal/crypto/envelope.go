// Package crypto implements the dual-mode field encryption core: the wire
// envelope codec, the server key ring with rotation fallback, and the
// AES-256-GCM encryption engine.
//
// Two envelope formats coexist in storage:
//
//	client ("ZK1"):  "ZK1:" + base64(iv) + ":" + base64(ciphertext‖tag)
//	legacy (server): base64(iv) + ":" + base64(ciphertext‖tag)
//
// Client envelopes are produced and decrypted only by the end-user's device;
// the server stores them opaquely and must never attempt to decrypt or
// re-encrypt them. Legacy envelopes are decryptable by the server holding
// the configured key ring.
package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ClientEnvelopePrefix tags ciphertext produced client-side. The tag is the
// authoritative signal for the pass-through policy: anything carrying it is
// opaque to the server.
const ClientEnvelopePrefix = "ZK1:"

// Format classifies the serialized form of one stored field value.
type Format int

const (
	// FormatPlaintext means the value matches neither envelope shape and is
	// treated as transitional/untrusted plain input.
	FormatPlaintext Format = iota

	// FormatClient means the value carries the "ZK1:" tag.
	FormatClient

	// FormatLegacy means the value has the untagged iv:ciphertext shape
	// produced by the server-side engine.
	FormatLegacy
)

// String returns the sidecar-metadata name of the format as stored next to
// encrypted payment fields ("ZK1", "SERVER_GCM", or "" for plaintext).
func (f Format) String() string {
	switch f {
	case FormatClient:
		return "ZK1"
	case FormatLegacy:
		return "SERVER_GCM"
	default:
		return ""
	}
}

// GCM IV sizes accepted when classifying an untagged value as a legacy
// envelope. 12 bytes is what the engine emits; 16 appears in data written by
// older releases.
var legacyIVSizes = [...]int{12, 16}

// Classify determines which of the three forms value is in, deterministically
// and from the string alone.
//
// The "ZK1:" tag is checked first and is unambiguous. An untagged value is a
// legacy envelope only when it splits into exactly two non-empty parts on ":"
// and both parts are valid standard base64 with an IV of a plausible GCM
// size. Everything else is plaintext.
//
// Classify never applies the delimiter-normalization fallback that Decode
// uses; policy decisions (the ZK1 pass-through) must not depend on
// heuristics.
func Classify(value string) Format {
	if strings.HasPrefix(value, ClientEnvelopePrefix) {
		return FormatClient
	}

	ivPart, ctPart, ok := splitLegacy(value)
	if !ok {
		return FormatPlaintext
	}

	iv, err := base64.StdEncoding.DecodeString(ivPart)
	if err != nil {
		return FormatPlaintext
	}

	ct, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil {
		return FormatPlaintext
	}

	if !plausibleIVSize(len(iv)) || len(ct) == 0 {
		return FormatPlaintext
	}

	return FormatLegacy
}

// Encode serializes an IV and ciphertext‖tag pair into its wire form.
// When tagged is true the client-envelope prefix is prepended; the server
// engine always encodes with tagged=false.
func Encode(iv, ciphertext []byte, tagged bool) string {
	encoded := base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ciphertext)
	if tagged {
		return ClientEnvelopePrefix + encoded
	}

	return encoded
}

// Decode parses a legacy (untagged) envelope into its IV and ciphertext‖tag
// parts.
//
// As a last-resort recovery for delimiter corruption seen in transit (a "."
// substituted for the ":" separator), Decode retries the split with "."
// before giving up. The normalization exists only here, on the decode path —
// it never influences Classify.
//
// Returns ErrEnvelopeMalformed (wrapped with detail) when the value cannot
// be parsed under any accepted splitting.
func Decode(value string) ([]byte, []byte, error) {
	if strings.HasPrefix(value, ClientEnvelopePrefix) {
		return nil, nil, fmt.Errorf("%w: client envelope is opaque to the server", ErrEnvelopeMalformed)
	}

	if iv, ct, ok := splitLegacy(value); ok {
		return decodeParts(iv, ct)
	}

	// Transit corruption fallback: some proxies rewrote ":" to ".".
	if iv, ct, ok := splitOn(value, "."); ok {
		if decodedIV, decodedCT, err := decodeParts(iv, ct); err == nil {
			return decodedIV, decodedCT, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: expected two base64 parts separated by ':'", ErrEnvelopeMalformed)
}

func splitLegacy(value string) (string, string, bool) {
	return splitOn(value, ":")
}

func splitOn(value, sep string) (string, string, bool) {
	parts := strings.Split(value, sep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}

	return parts[0], parts[1], true
}

func decodeParts(ivPart, ctPart string) ([]byte, []byte, error) {
	iv, err := base64.StdEncoding.DecodeString(ivPart)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad iv encoding: %w", ErrEnvelopeMalformed, err)
	}

	ct, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad ciphertext encoding: %w", ErrEnvelopeMalformed, err)
	}

	if !plausibleIVSize(len(iv)) {
		return nil, nil, fmt.Errorf("%w: iv length %d is not a GCM nonce size", ErrEnvelopeMalformed, len(iv))
	}

	return iv, ct, nil
}

func plausibleIVSize(n int) bool {
	for _, size := range legacyIVSizes {
		if n == size {
			return true
		}
	}

	return false
}

package provider

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"PriceGate/internal/domain/models"
)

// Update payloads are framed as:
//
//	magic "PGUP" (4) | version (1) | body length (4, big endian) | JSON body | signature (0 or 64)
//
// The signature, when present, is ed25519 over everything before it.
// The body is one JSON-encoded models.Update.

const (
	payloadVersion = 1
	headerLen      = 4 + 1 + 4
)

var payloadMagic = [4]byte{'P', 'G', 'U', 'P'}

var (
	// ErrBadPayload marks framing or body decode failures.
	ErrBadPayload = errors.New("provider: malformed payload")
	// ErrBadSignature marks a missing or invalid payload signature.
	ErrBadSignature = errors.New("provider: bad payload signature")
)

// Encode frames an update. A nil key produces an unsigned payload.
func Encode(u models.Update, key ed25519.PrivateKey) ([]byte, error) {
	body, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode update body: %w", err)
	}

	buf := make([]byte, headerLen, headerLen+len(body)+ed25519.SignatureSize)
	copy(buf[:4], payloadMagic[:])
	buf[4] = payloadVersion
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(body)))
	buf = append(buf, body...)

	if key != nil {
		buf = append(buf, ed25519.Sign(key, buf)...)
	}
	return buf, nil
}

// decode splits a payload into its update and signature trailer. The trailer
// is empty for unsigned payloads.
func decode(p []byte) (models.Update, []byte, error) {
	var u models.Update
	if len(p) < headerLen {
		return u, nil, fmt.Errorf("%w: short header", ErrBadPayload)
	}
	if [4]byte(p[:4]) != payloadMagic {
		return u, nil, fmt.Errorf("%w: bad magic", ErrBadPayload)
	}
	if p[4] != payloadVersion {
		return u, nil, fmt.Errorf("%w: unsupported version %d", ErrBadPayload, p[4])
	}
	bodyLen := int(binary.BigEndian.Uint32(p[5:9]))
	end := headerLen + bodyLen
	if end > len(p) {
		return u, nil, fmt.Errorf("%w: truncated body", ErrBadPayload)
	}
	sig := p[end:]
	if len(sig) != 0 && len(sig) != ed25519.SignatureSize {
		return u, nil, fmt.Errorf("%w: bad trailer length %d", ErrBadPayload, len(sig))
	}
	if err := json.Unmarshal(p[headerLen:end], &u); err != nil {
		return u, nil, fmt.Errorf("%w: body: %v", ErrBadPayload, err)
	}
	return u, sig, nil
}

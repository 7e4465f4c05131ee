// Package archivex builds the encrypted vault export format: JSON,
// compressed with zstd, then encrypted with age to a passphrase (scrypt
// recipient). Unpack reverses the pipeline.
package archivex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"
)

// ErrEmptyPassphrase is returned when no passphrase is supplied.
var ErrEmptyPassphrase = errors.New("passphrase is required")

// workFactor is the scrypt log2(N) used when encrypting. Tests lower it.
var workFactor = 18

var (
	codecOnce   sync.Once
	codecErr    error
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

// zstd encoders and decoders are safe for concurrent EncodeAll/DecodeAll
// and expensive to build, so one pair is shared.
func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		zstdEncoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		zstdDecoder, codecErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, codecErr
}

// Pack serializes v and seals it to passphrase.
func Pack(v any, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	plain, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling archive: %w", err)
	}

	enc, _, err := codecs()
	if err != nil {
		return nil, fmt.Errorf("creating zstd codec: %w", err)
	}
	compressed := enc.EncodeAll(plain, nil)

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(workFactor)

	var out bytes.Buffer
	w, err := age.Encrypt(&out, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return nil, fmt.Errorf("writing archive: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}

	return out.Bytes(), nil
}

// Unpack decrypts data with passphrase and decodes it into v.
func Unpack(data []byte, passphrase string, v any) error {
	if passphrase == "" {
		return ErrEmptyPassphrase
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return fmt.Errorf("decrypting archive: %w", err)
	}
	compressed, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	_, dec, err := codecs()
	if err != nil {
		return fmt.Errorf("creating zstd codec: %w", err)
	}
	plain, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("decompressing archive: %w", err)
	}

	return json.Unmarshal(plain, v)
}

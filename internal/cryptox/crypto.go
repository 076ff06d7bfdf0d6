// Package cryptox implements the symmetric codecs used to seal the account
// document at rest.
//
// Two codecs are available behind the Codec interface:
//
//   - AES-256-CBC with a random 16-byte IV and PKCS#7 padding. This is the
//     format already present in deployed blobs. It provides confidentiality
//     only: there is no integrity tag, so a writer with access to the remote
//     store can flip ciphertext bits undetected and most corruptions decrypt
//     to garbage instead of failing.
//   - XChaCha20-Poly1305 (AEAD). Tampering is detected on Decrypt. It is not
//     wire-compatible with the CBC format.
//
// Keys come from DeriveKey, which pads or truncates a passphrase to exactly
// KeySize bytes. There is no salt and no stretching.
package cryptox

import "fmt"

// KeySize is the only key length accepted by the codecs.
const KeySize = 32

// Codec names accepted by NewCodec.
const (
	CodecAESCBC  = "aes-cbc"
	CodecXChaCha = "xchacha20poly1305"
	keyPadByte   = '0'
	defaultCodec = CodecAESCBC
)

// Codec encrypts and decrypts opaque payloads. Encrypt must use a fresh
// random IV or nonce on every call. Decrypt returns an error wrapping
// common.ErrDecryption when the envelope cannot be opened.
type Codec interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(envelope []byte) ([]byte, error)
}

// DeriveKey turns a passphrase into a KeySize key by right-padding it with
// ASCII '0' and truncating the result, matching the key handling of the
// existing deployment.
func DeriveKey(passphrase string) []byte {
	key := make([]byte, KeySize)
	n := copy(key, passphrase)
	for i := n; i < KeySize; i++ {
		key[i] = keyPadByte
	}
	return key
}

// NewCodec returns the codec registered under name. An empty name selects
// the AES-CBC codec.
func NewCodec(name string, key []byte) (Codec, error) {
	if name == "" {
		name = defaultCodec
	}
	switch name {
	case CodecAESCBC:
		return NewAESCBC(key)
	case CodecXChaCha:
		return NewXChaCha(key)
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

func checkKey(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("invalid key length %d, want %d", len(key), KeySize)
	}
	return nil
}

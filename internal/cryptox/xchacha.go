package cryptox

import (
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// XChaCha is the authenticated codec. The envelope layout is
// nonce(24) || sealed, where sealed carries the Poly1305 tag.
type XChaCha struct {
	aead cipher.AEAD
}

// NewXChaCha builds an XChaCha20-Poly1305 codec from a KeySize key.
func NewXChaCha(key []byte) (*XChaCha, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &XChaCha{aead: aead}, nil
}

func (c *XChaCha) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := common.GenerateRandByteArray(chacha20poly1305.NonceSizeX)
	out := make([]byte, 0, len(nonce)+len(plaintext)+c.aead.Overhead())
	out = append(out, nonce...)
	return c.aead.Seal(out, nonce, plaintext, nil), nil
}

func (c *XChaCha) Decrypt(envelope []byte) ([]byte, error) {
	if len(envelope) < chacha20poly1305.NonceSizeX+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: envelope too short (%d bytes)", common.ErrDecryption, len(envelope))
	}
	nonce, sealed := envelope[:chacha20poly1305.NonceSizeX], envelope[chacha20poly1305.NonceSizeX:]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plain, nil
}

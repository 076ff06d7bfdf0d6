package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
)

// IVSize is the length of the IV prefix of an AES-CBC envelope.
const IVSize = aes.BlockSize

// AESCBC is the confidentiality-only codec. The envelope layout is
// iv || ciphertext.
type AESCBC struct {
	block cipher.Block
}

// NewAESCBC builds an AES-256-CBC codec from a KeySize key.
func NewAESCBC(key []byte) (*AESCBC, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &AESCBC{block: block}, nil
}

// Encrypt pads plaintext with PKCS#7 and encrypts it under a new random IV.
func (c *AESCBC) Encrypt(plaintext []byte) ([]byte, error) {
	iv := common.GenerateRandByteArray(IVSize)
	return c.encryptWithIV(iv, plaintext), nil
}

func (c *AESCBC) encryptWithIV(iv, plaintext []byte) []byte {
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, IVSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[IVSize:], padded)
	return out
}

// Decrypt opens an iv || ciphertext envelope. A wrong key is usually
// reported through invalid padding, but not always: without an integrity
// tag some wrong-key or corrupted inputs decrypt to garbage.
func (c *AESCBC) Decrypt(envelope []byte) ([]byte, error) {
	if len(envelope) < IVSize {
		return nil, fmt.Errorf("%w: envelope shorter than IV (%d bytes)", common.ErrDecryption, len(envelope))
	}
	iv, ct := envelope[:IVSize], envelope[IVSize:]
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", common.ErrDecryption, len(ct))
	}

	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, ct)

	out, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", common.ErrDecryption)
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, fmt.Errorf("%w: bad padding", common.ErrDecryption)
		}
	}
	return b[:len(b)-n], nil
}

package secrets

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"filippo.io/age"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/secretfile"
)

// GenerateIdentity creates a new x25519 identity.
func GenerateIdentity() (*age.X25519Identity, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("failed to generate identity: %w", err)
	}
	return id, nil
}

// PublicKey derives the encoded public key of an identity.
func PublicKey(id *age.X25519Identity) string {
	return id.Recipient().String()
}

// ParseRecipient validates an encoded public key.
func ParseRecipient(pub string) (*age.X25519Recipient, error) {
	r, err := age.ParseX25519Recipient(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", serrors.ErrInvalidRecipient, pub, err)
	}
	return r, nil
}

func parseRecipients(pubs []string) ([]age.Recipient, error) {
	if len(pubs) == 0 {
		return nil, fmt.Errorf("%w: no recipients to encrypt to", serrors.ErrEncryptionFailed)
	}
	out := make([]age.Recipient, 0, len(pubs))
	for _, pub := range pubs {
		r, err := ParseRecipient(pub)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// EncryptValue encrypts plaintext to every recipient and returns the
// stored value form: the ciphertext prefix followed by base64.
func EncryptValue(plaintext string, recipients []string) (string, error) {
	recips, err := parseRecipients(recipients)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recips...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", serrors.ErrEncryptionFailed, err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("%w: %v", serrors.ErrEncryptionFailed, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", serrors.ErrEncryptionFailed, err)
	}

	return secretfile.WrapEncrypted(base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// DecryptValue decrypts a stored ciphertext value with id.
func DecryptValue(stored string, id *age.X25519Identity) (string, error) {
	b64, ok := secretfile.UnwrapEncrypted(stored)
	if !ok {
		return "", fmt.Errorf("%w: value does not carry the ciphertext prefix", serrors.ErrDecryptionFailed)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not valid base64", serrors.ErrDecryptionFailed)
	}

	r, err := age.Decrypt(bytes.NewReader(raw), id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", serrors.ErrDecryptionFailed, err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", serrors.ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

package secrets

import (
	"errors"
	"strings"
	"testing"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/secretfile"
)

func TestEncryptValue(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		id := newPeerIdentity(t)

		stored, err := EncryptValue("hunter2", []string{PublicKey(id)})
		if err != nil {
			t.Fatalf("EncryptValue failed: %v", err)
		}
		if !secretfile.IsEncrypted(stored) {
			t.Fatalf("stored value %q lacks the ciphertext prefix", stored[:16])
		}
		if strings.Contains(stored, "hunter2") {
			t.Fatal("stored value contains the plaintext")
		}

		got, err := DecryptValue(stored, id)
		if err != nil {
			t.Fatalf("DecryptValue failed: %v", err)
		}
		if got != "hunter2" {
			t.Errorf("got %q, want original plaintext", got)
		}
	})

	t.Run("EveryRecipientCanDecrypt", func(t *testing.T) {
		a := newPeerIdentity(t)
		b := newPeerIdentity(t)

		stored, err := EncryptValue("shared-secret", []string{PublicKey(a), PublicKey(b)})
		if err != nil {
			t.Fatalf("EncryptValue failed: %v", err)
		}

		gotA, err := DecryptValue(stored, a)
		if err != nil {
			t.Fatalf("first recipient failed to decrypt: %v", err)
		}
		gotB, err := DecryptValue(stored, b)
		if err != nil {
			t.Fatalf("second recipient failed to decrypt: %v", err)
		}
		if gotA != "shared-secret" || gotB != "shared-secret" {
			t.Errorf("got %q and %q", gotA, gotB)
		}
	})

	t.Run("NoRecipients", func(t *testing.T) {
		_, err := EncryptValue("x", nil)
		if !errors.Is(err, serrors.ErrEncryptionFailed) {
			t.Errorf("got %v, want ErrEncryptionFailed", err)
		}
	})

	t.Run("InvalidRecipient", func(t *testing.T) {
		_, err := EncryptValue("x", []string{"not-a-key"})
		if !errors.Is(err, serrors.ErrInvalidRecipient) {
			t.Errorf("got %v, want ErrInvalidRecipient", err)
		}
	})
}

func TestDecryptValue(t *testing.T) {
	t.Run("WrongIdentityFails", func(t *testing.T) {
		owner := newPeerIdentity(t)
		stranger := newPeerIdentity(t)

		stored, err := EncryptValue("hunter2", []string{PublicKey(owner)})
		if err != nil {
			t.Fatalf("EncryptValue failed: %v", err)
		}

		_, err = DecryptValue(stored, stranger)
		if !errors.Is(err, serrors.ErrDecryptionFailed) {
			t.Errorf("got %v, want ErrDecryptionFailed", err)
		}
	})

	t.Run("MissingPrefixFails", func(t *testing.T) {
		id := newPeerIdentity(t)
		_, err := DecryptValue("plaintext", id)
		if !errors.Is(err, serrors.ErrDecryptionFailed) {
			t.Errorf("got %v, want ErrDecryptionFailed", err)
		}
	})

	t.Run("BadBase64Fails", func(t *testing.T) {
		id := newPeerIdentity(t)
		_, err := DecryptValue("enc:age:!!!not-base64!!!", id)
		if !errors.Is(err, serrors.ErrDecryptionFailed) {
			t.Errorf("got %v, want ErrDecryptionFailed", err)
		}
	})

	t.Run("ErrorNeverEchoesPlaintext", func(t *testing.T) {
		owner := newPeerIdentity(t)
		stranger := newPeerIdentity(t)

		stored, err := EncryptValue("super-sensitive-value", []string{PublicKey(owner)})
		if err != nil {
			t.Fatalf("EncryptValue failed: %v", err)
		}

		_, err = DecryptValue(stored, stranger)
		if err == nil {
			t.Fatal("expected decryption failure")
		}
		if strings.Contains(err.Error(), "super-sensitive-value") {
			t.Error("error message echoes the plaintext")
		}
	})
}

func TestParseRecipient(t *testing.T) {
	id := newPeerIdentity(t)

	if _, err := ParseRecipient(PublicKey(id)); err != nil {
		t.Errorf("valid public key rejected: %v", err)
	}
	if _, err := ParseRecipient("age1garbage"); !errors.Is(err, serrors.ErrInvalidRecipient) {
		t.Errorf("got %v, want ErrInvalidRecipient", err)
	}
}

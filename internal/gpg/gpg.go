// Package gpg verifies the GPG-clearsigned variant of the catalog document
// against a keyring of trusted publisher keys.
package gpg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
)

// maxKeyFileSize caps key files read from disk; publisher keys are a few KB.
const maxKeyFileSize = 1 << 20

// KeyRing represents a collection of PGP public keys for signature
// verification.
type KeyRing interface {
	VerifyDetached(message []byte, signature []byte) error
	AddKey(armoredKey string) error
}

// PGPKeyRing implements KeyRing using gopenpgp v2.
type PGPKeyRing struct {
	keyRing *crypto.KeyRing
}

// NewPGPKeyRing creates an empty PGPKeyRing.
func NewPGPKeyRing() *PGPKeyRing {
	return &PGPKeyRing{}
}

// AddKey parses an ASCII-armored public key and adds it to the keyring.
func (r *PGPKeyRing) AddKey(armoredKey string) error {
	if armoredKey == "" {
		return fmt.Errorf("armored key cannot be empty")
	}

	key, err := crypto.NewKeyFromArmored(armoredKey)
	if err != nil {
		return fmt.Errorf("failed to parse PGP key: %w", err)
	}

	if r.keyRing == nil {
		r.keyRing, err = crypto.NewKeyRing(key)
		if err != nil {
			return fmt.Errorf("failed to create keyring: %w", err)
		}
		return nil
	}

	if err := r.keyRing.AddKey(key); err != nil {
		return fmt.Errorf("failed to add key to keyring: %w", err)
	}
	return nil
}

// VerifyDetached verifies a detached signature over message.
func (r *PGPKeyRing) VerifyDetached(message []byte, signature []byte) error {
	if r.keyRing == nil {
		return fmt.Errorf("no keys in keyring")
	}

	plainMessage := crypto.NewPlainMessage(message)

	pgpSignature, err := crypto.NewPGPSignatureFromArmored(string(signature))
	if err != nil {
		// Try binary format if armored fails
		pgpSignature = crypto.NewPGPSignature(signature)
	}

	if err := r.keyRing.VerifyDetached(plainMessage, pgpSignature, crypto.GetUnixTime()); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

// ClearTextMessage represents a clear-signed PGP message.
type ClearTextMessage struct {
	Data      []byte
	Signature []byte
}

// ParseClearTextMessage splits a clear-signed document into its message and
// signature parts.
func ParseClearTextMessage(armoredText string) (*ClearTextMessage, error) {
	if armoredText == "" {
		return nil, fmt.Errorf("armored text cannot be empty")
	}

	lines := strings.Split(armoredText, "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("invalid clear-signed message format")
	}

	messageStart := -1
	signatureStart := -1
	for i, line := range lines {
		if strings.Contains(line, "BEGIN PGP SIGNED MESSAGE") {
			messageStart = i + 1
		}
		if strings.Contains(line, "BEGIN PGP SIGNATURE") {
			signatureStart = i
			break
		}
	}
	if messageStart == -1 || signatureStart == -1 {
		return nil, fmt.Errorf("invalid clear-signed message structure")
	}

	// Skip the hash header and its trailing blank line if present. The
	// input comes off the network, so the header may arrive without a body.
	messageLines := lines[messageStart:signatureStart]
	if len(messageLines) > 0 && strings.HasPrefix(messageLines[0], "Hash:") {
		messageLines = messageLines[1:]
		if len(messageLines) > 0 && messageLines[0] == "" {
			messageLines = messageLines[1:]
		}
	}

	message := strings.TrimSpace(strings.Join(messageLines, "\n"))
	if message == "" {
		return nil, fmt.Errorf("clear-signed message has no content")
	}
	signature := strings.Join(lines[signatureStart:], "\n")

	return &ClearTextMessage{
		Data:      []byte(message),
		Signature: []byte(signature),
	}, nil
}

// VerifyClearSigned verifies a clear-signed document and returns its
// plaintext content on success.
func VerifyClearSigned(keyRing KeyRing, armoredText string) ([]byte, error) {
	if keyRing == nil {
		return nil, fmt.Errorf("keyring cannot be nil")
	}

	message, err := ParseClearTextMessage(armoredText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse clear-signed message: %w", err)
	}

	if err := keyRing.VerifyDetached(message.Data, message.Signature); err != nil {
		return nil, err
	}
	return message.Data, nil
}

// LoadKeyRingFromDir loads all ASCII-armored public keys (*.asc) from the
// given directory into a keyring.
func LoadKeyRingFromDir(keysDir string) (KeyRing, error) {
	files, err := os.ReadDir(keysDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys directory: %w", err)
	}

	keyRing := NewPGPKeyRing()
	keyCount := 0

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".asc" {
			continue
		}

		filePath := filepath.Join(keysDir, file.Name())
		info, err := os.Stat(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to access key file: %w", err)
		}
		if info.Size() > maxKeyFileSize {
			return nil, fmt.Errorf("key file '%s' exceeds maximum allowed size of %d bytes", file.Name(), maxKeyFileSize)
		}

		keyData, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}

		if err := keyRing.AddKey(string(keyData)); err != nil {
			return nil, fmt.Errorf("invalid key file '%s': %w", file.Name(), err)
		}
		keyCount++
	}

	if keyCount == 0 {
		return nil, fmt.Errorf("no .asc keys found in directory")
	}
	return keyRing, nil
}

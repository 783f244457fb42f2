package gpg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const clearSignedDoc = `-----BEGIN PGP SIGNED MESSAGE-----
Hash: SHA512

{"products": {"com.ubuntu.cloud:server:24.04:amd64": {}}}
-----BEGIN PGP SIGNATURE-----

iQIzBAEBCgAdFiEEexampleexampleexampleexampleexampleFAl8AAAAACgkQ
exampleexampleexampleexampleexampleexampleexampleexampleexample=
=abcd
-----END PGP SIGNATURE-----`

func TestParseClearTextMessage(t *testing.T) {
	message, err := ParseClearTextMessage(clearSignedDoc)
	if err != nil {
		t.Fatalf("ParseClearTextMessage() error = %v", err)
	}

	wantData := `{"products": {"com.ubuntu.cloud:server:24.04:amd64": {}}}`
	if string(message.Data) != wantData {
		t.Errorf("Data = %q, want %q", message.Data, wantData)
	}
	if !strings.Contains(string(message.Signature), "BEGIN PGP SIGNATURE") {
		t.Errorf("Signature = %q, want armored signature block", message.Signature)
	}
}

func TestParseClearTextMessageWithoutHashHeader(t *testing.T) {
	doc := strings.Replace(clearSignedDoc, "Hash: SHA512\n\n", "", 1)

	message, err := ParseClearTextMessage(doc)
	if err != nil {
		t.Fatalf("ParseClearTextMessage() error = %v", err)
	}
	if !strings.HasPrefix(string(message.Data), `{"products"`) {
		t.Errorf("Data = %q, want catalog plaintext", message.Data)
	}
}

func TestParseClearTextMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty input", text: ""},
		{name: "too short", text: "a\nb"},
		{name: "plain json", text: `{"products": {}}` + "\n\n\n"},
		{name: "missing signature block", text: "-----BEGIN PGP SIGNED MESSAGE-----\n\ndata\nmore"},
		{
			name: "hash header with no body",
			text: "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA256\n-----BEGIN PGP SIGNATURE-----\nsig\n-----END PGP SIGNATURE-----",
		},
		{
			name: "empty body",
			text: "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA256\n\n-----BEGIN PGP SIGNATURE-----\nsig\n-----END PGP SIGNATURE-----",
		},
		{
			name: "signature immediately after header line",
			text: "-----BEGIN PGP SIGNED MESSAGE-----\n-----BEGIN PGP SIGNATURE-----\nsig\n-----END PGP SIGNATURE-----",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseClearTextMessage(tt.text); err == nil {
				t.Error("ParseClearTextMessage() expected error, got nil")
			}
		})
	}
}

func TestVerifyDetachedWithoutKeys(t *testing.T) {
	keyRing := NewPGPKeyRing()

	err := keyRing.VerifyDetached([]byte("data"), []byte("sig"))
	if err == nil {
		t.Fatal("VerifyDetached() expected error for empty keyring")
	}
	if !strings.Contains(err.Error(), "no keys") {
		t.Errorf("VerifyDetached() error = %v, want mention of missing keys", err)
	}
}

func TestAddKeyInvalid(t *testing.T) {
	keyRing := NewPGPKeyRing()

	if err := keyRing.AddKey(""); err == nil {
		t.Error("AddKey(\"\") expected error")
	}
	if err := keyRing.AddKey("not an armored key"); err == nil {
		t.Error("AddKey() expected error for malformed key")
	}
}

func TestVerifyClearSignedNilKeyRing(t *testing.T) {
	if _, err := VerifyClearSigned(nil, clearSignedDoc); err == nil {
		t.Error("VerifyClearSigned(nil, ...) expected error")
	}
}

func TestVerifyClearSignedRejectsUnsigned(t *testing.T) {
	keyRing := NewPGPKeyRing()
	if _, err := VerifyClearSigned(keyRing, `{"products": {}}`); err == nil {
		t.Error("VerifyClearSigned() expected error for unsigned document")
	}
}

func TestLoadKeyRingFromDirErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		if _, err := LoadKeyRingFromDir(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("LoadKeyRingFromDir() expected error for missing directory")
		}
	})

	t.Run("no asc files", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadKeyRingFromDir(dir)
		if err == nil {
			t.Fatal("LoadKeyRingFromDir() expected error for empty key dir")
		}
		if !strings.Contains(err.Error(), "no .asc keys") {
			t.Errorf("LoadKeyRingFromDir() error = %v, want mention of missing keys", err)
		}
	})

	t.Run("malformed key file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "bad.asc"), []byte("garbage"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadKeyRingFromDir(dir); err == nil {
			t.Error("LoadKeyRingFromDir() expected error for malformed key")
		}
	})
}

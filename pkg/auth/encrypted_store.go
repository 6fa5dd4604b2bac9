package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	keyringService = "socialscraper"
	keyringKey     = "auth_state_passphrase"
	passphraseEnv  = "SOCIALSCRAPER_PASSPHRASE"
)

// EncryptedFileStore persists auth state encrypted at rest. The
// passphrase lives in the system keychain when available, with an
// environment variable fallback for headless hosts.
type EncryptedFileStore struct {
	dir        string
	passphrase string
}

// encryptedEnvelope is the on-disk structure of an encrypted state file
type encryptedEnvelope struct {
	Salt      string `json:"salt"`
	Encrypted string `json:"encrypted"`
}

// NewEncryptedFileStore creates an encrypted file-based auth state store
func NewEncryptedFileStore(dir string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create auth state directory: %w", err)
	}

	store := &EncryptedFileStore{dir: dir}
	passphrase, err := store.getPassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	store.passphrase = passphrase
	return store, nil
}

// getPassphrase retrieves the passphrase from the environment or the
// system keychain, generating and storing a fresh one on first use.
func (e *EncryptedFileStore) getPassphrase() (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}

	if p, err := keyring.Get(keyringService, keyringKey); err == nil && p != "" {
		return p, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	p := base64.StdEncoding.EncodeToString(raw)

	if err := keyring.Set(keyringService, keyringKey, p); err != nil {
		return "", fmt.Errorf("keyring unavailable and %s not set: %w", passphraseEnv, err)
	}
	return p, nil
}

// Path returns the state file location for a platform
func (e *EncryptedFileStore) Path(platform string) string {
	return filepath.Join(e.dir, fmt.Sprintf("%s_auth_state.enc", platform))
}

// Exists checks whether an encrypted state file is present for a platform
func (e *EncryptedFileStore) Exists(platform string) bool {
	_, err := os.Stat(e.Path(platform))
	return err == nil
}

// Save encrypts and writes the state file for the state's platform
func (e *EncryptedFileStore) Save(state *State) error {
	if state == nil || state.Platform == "" {
		return errors.New("auth state requires a platform")
	}

	plaintext, err := state.Marshal()
	if err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	ciphertext, err := e.encrypt(plaintext, salt)
	if err != nil {
		return err
	}

	envelope := encryptedEnvelope{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return os.WriteFile(e.Path(state.Platform), data, 0600)
}

// Load reads, decrypts, and parses the state file for a platform
func (e *EncryptedFileStore) Load(platform string) (*State, error) {
	data, err := os.ReadFile(e.Path(platform))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for platform %q", ErrStateNotFound, platform)
		}
		return nil, fmt.Errorf("failed to read auth state: %w", err)
	}

	var envelope encryptedEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(envelope.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	plaintext, err := e.decrypt(ciphertext, salt)
	if err != nil {
		return nil, err
	}
	return UnmarshalState(plaintext)
}

func (e *EncryptedFileStore) deriveKey(salt []byte) []byte {
	return pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
}

func (e *EncryptedFileStore) encrypt(plaintext, salt []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *EncryptedFileStore) decrypt(ciphertext, salt []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt auth state: %w", err)
	}
	return plaintext, nil
}

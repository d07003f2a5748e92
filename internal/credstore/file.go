package credstore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/meditrade/storefront/internal/errs"
	"github.com/meditrade/storefront/internal/model"
)

const (
	credsFile = "credentials.json"
	keyFile   = "key.bin"

	sealKeyLen = 32
)

// sealInfo binds derived keys to this file's purpose.
var sealInfo = []byte("storefront credentials v1")

// credRecord is the on-disk layout, sealed as a whole.
type credRecord struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user,omitempty"`
	ExpiresAt    string      `json:"expires_at,omitempty"`
}

// File stores credentials in a sealed file under the user config directory.
// The sealing key lives next to it; this keeps tokens out of casual reads and
// backups of plain config files, it is not a defense against a local attacker
// with the same UID.
type File struct {
	mu  sync.Mutex
	dir string
}

var _ Store = (*File)(nil)

// ConfigDir resolves the storage directory honoring XDG_CONFIG_HOME.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "storefront")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "storefront")
}

// NewFile creates a file-backed store rooted at dir ("" means ConfigDir()).
func NewFile(dir string) *File {
	if dir == "" {
		dir = ConfigDir()
	}
	return &File{dir: dir}
}

func (f *File) credsPath() string { return filepath.Join(f.dir, credsFile) }
func (f *File) keyPath() string   { return filepath.Join(f.dir, keyFile) }

// sealKey loads or creates the local random key and derives the AEAD key from it.
func (f *File) sealKey() ([]byte, error) {
	raw, err := os.ReadFile(f.keyPath())
	if errors.Is(err, os.ErrNotExist) {
		raw = make([]byte, sealKeyLen)
		if _, err := rand.Read(raw); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(f.dir, 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(f.keyPath(), raw, 0o600); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	r := hkdf.New(sha256.New, raw, nil, sealInfo)
	key := make([]byte, sealKeyLen)
	if _, err := r.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func (f *File) seal(plain []byte) ([]byte, error) {
	key, err := f.sealKey()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plain)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plain, nil)...)
	return out, nil
}

func (f *File) unseal(sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("sealed record too short")
	}
	key, err := f.sealKey()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := sealed[:chacha20poly1305.NonceSizeX]
	ct := sealed[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, nil)
}

// load reads and unseals the record; errs.ErrNotFound when nothing is stored.
func (f *File) load() (*credRecord, error) {
	sealed, err := os.ReadFile(f.credsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	plain, err := f.unseal(sealed)
	if err != nil {
		return nil, fmt.Errorf("unseal credentials: %w", err)
	}
	var rec credRecord
	if err := json.Unmarshal(plain, &rec); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return &rec, nil
}

func (f *File) save(rec *credRecord) error {
	plain, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	sealed, err := f.seal(plain)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	tmp := f.credsPath() + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.credsPath())
}

func (f *File) Tokens() (model.Tokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.load()
	if err != nil {
		return model.Tokens{}, err
	}
	if rec.Token == "" {
		return model.Tokens{}, errs.ErrNotFound
	}
	t := model.Tokens{AccessToken: rec.Token, RefreshToken: rec.RefreshToken}
	if rec.ExpiresAt != "" {
		_ = t.ExpiresAt.UnmarshalText([]byte(rec.ExpiresAt))
	}
	return t, nil
}

func (f *File) SaveTokens(t model.Tokens) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.load()
	if errors.Is(err, errs.ErrNotFound) {
		rec = &credRecord{}
	} else if err != nil {
		return err
	}
	rec.Token = t.AccessToken
	rec.RefreshToken = t.RefreshToken
	rec.ExpiresAt = ""
	if !t.ExpiresAt.IsZero() {
		b, _ := t.ExpiresAt.MarshalText()
		rec.ExpiresAt = string(b)
	}
	return f.save(rec)
}

func (f *File) User() (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.load()
	if err != nil {
		return nil, err
	}
	if rec.User == nil {
		return nil, errs.ErrNotFound
	}
	cpy := *rec.User
	return &cpy, nil
}

func (f *File) SaveUser(u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.load()
	if errors.Is(err, errs.ErrNotFound) {
		rec = &credRecord{}
	} else if err != nil {
		return err
	}
	cpy := *u
	rec.User = &cpy
	return f.save(rec)
}

// Clear removes the credentials file. The key file stays; it carries no session state.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.credsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

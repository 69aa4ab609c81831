package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

var ErrSealedValue = errors.New("sealed value cannot be opened")

const (
	nonceSize   = 24
	saltSize    = 16
	scryptN     = 1 << 15
	scryptR     = 8
	scryptP     = 1
	fileVersion = 1
)

type fileDocument struct {
	Version int               `json:"version"`
	Salt    string            `json:"salt,omitempty"`
	Items   map[string]string `json:"items"`
}

// FileStorage persiste el registro en un archivo JSON local. Si se configura un secreto
// los valores se sellan con secretbox y la clave se deriva con scrypt.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	secret []byte

	keySalt string
	key     *[32]byte
}

func NewFileStorage(path, secret string) (*FileStorage, error) {
	if strings.TrimSpace(path) == "" {
		p, err := DefaultFilePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStorage{path: path, secret: []byte(secret)}, nil
}

// DefaultFilePath ubica el archivo en el directorio de configuración del usuario.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "outreach-console", "storage.json"), nil
}

func (s *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	raw, ok := doc.Items[key]
	if !ok {
		return "", false, nil
	}
	value, err := s.open(doc, raw)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *FileStorage) Set(_ context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	sealed, err := s.seal(&doc, value)
	if err != nil {
		return err
	}
	doc.Items[key] = sealed
	return s.write(doc)
}

func (s *FileStorage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := doc.Items[k]; ok {
			delete(doc.Items, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.write(doc)
}

func (s *FileStorage) load() (fileDocument, error) {
	doc := fileDocument{Version: fileVersion, Items: map[string]string{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: decode %s: %v", ErrStorageUnavailable, s.path, err)
	}
	if doc.Items == nil {
		doc.Items = map[string]string{}
	}
	return doc, nil
}

// write reemplaza el archivo de forma atómica (temp + rename).
func (s *FileStorage) write(doc fileDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".storage-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *FileStorage) seal(doc *fileDocument, value string) (string, error) {
	if len(s.secret) == 0 {
		return value, nil
	}
	if doc.Salt == "" {
		salt := make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		doc.Salt = base64.StdEncoding.EncodeToString(salt)
	}
	key, err := s.deriveKey(doc.Salt)
	if err != nil {
		return "", err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (s *FileStorage) open(doc fileDocument, raw string) (string, error) {
	if len(s.secret) == 0 {
		return raw, nil
	}
	if doc.Salt == "" {
		return "", ErrSealedValue
	}
	key, err := s.deriveKey(doc.Salt)
	if err != nil {
		return "", err
	}
	box, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrSealedValue
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	out, ok := secretbox.Open(nil, box[nonceSize:], &nonce, key)
	if !ok {
		return "", ErrSealedValue
	}
	return string(out), nil
}

func (s *FileStorage) deriveKey(saltB64 string) (*[32]byte, error) {
	if s.key != nil && s.keySalt == saltB64 {
		return s.key, nil
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, ErrSealedValue
	}
	derived, err := scrypt.Key(s.secret, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("derive storage key: %w", err)
	}
	var key [32]byte
	copy(key[:], derived)
	s.key = &key
	s.keySalt = saltB64
	return s.key, nil
}

package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	chatsPathKey    = "settings.path"
	chatsFileMode   = 0o600
	chatsDirMode    = 0o700
	chatsConfigDir  = ".shelfbot"
	chatsConfigFile = "chats.toml"
	tempFilePattern = ".chats-*.toml.tmp"
)

// Repository persists per-chat settings in a single TOML file. Every
// operation reads or rewrites the whole file; mutations are serialized
// per path within the process, but two processes (or two interleaved
// read-modify-write cycles above this layer) can still lose an update.
type Repository struct {
	chatsPath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SettingsRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, chatsConfigDir, chatsConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, chatsConfigDir))
	cfg.SetDefault(chatsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	chatsPath := cfg.GetString(chatsPathKey)
	if chatsPath == "" {
		return nil, errors.New("settings path is empty")
	}
	chatsPath, err = normalizeChatsPath(chatsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{chatsPath: chatsPath, mu: lockForPath(chatsPath)}, nil
}

// Get returns the chat's record, or a zero-value record carrying the chat
// id when the chat has never been saved.
func (r *Repository) Get(ctx context.Context, chatID int64) (domain.ChatSettings, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatSettings{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.ChatSettings{}, err
	}

	for _, entry := range file.Chats {
		if entry.ChatID == chatID {
			return fromSchema(entry), nil
		}
	}

	return domain.ChatSettings{ChatID: chatID}, nil
}

// Save rewrites the whole settings file with the chat's record replaced
// or appended.
func (r *Repository) Save(ctx context.Context, settings domain.ChatSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(settings)
	updated := false
	for i := range file.Chats {
		if file.Chats[i].ChatID == encoded.ChatID {
			file.Chats[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Chats = append(file.Chats, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.chatsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read chats file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode chats file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.chatsPath), chatsDirMode); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode chats file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.chatsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp chats file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp chats file: %w", err)
	}

	if err := tempFile.Chmod(chatsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp chats file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp chats file: %w", err)
	}

	if err := os.Rename(tempName, r.chatsPath); err != nil {
		return fmt.Errorf("replace chats file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.chatsPath, chatsFileMode); err != nil {
		return fmt.Errorf("chmod chats file: %w", err)
	}

	return nil
}

func toSchema(settings domain.ChatSettings) chatSchema {
	return chatSchema{
		ChatID:        settings.ChatID,
		LedgerURL:     settings.LedgerURL,
		LastMessageID: settings.LastMessageID,
	}
}

func fromSchema(entry chatSchema) domain.ChatSettings {
	return domain.ChatSettings{
		ChatID:        entry.ChatID,
		LedgerURL:     entry.LedgerURL,
		LastMessageID: entry.LastMessageID,
	}
}

func normalizeChatsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve settings path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

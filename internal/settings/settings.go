package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/utils"
	"gopkg.in/yaml.v3"
)

// Settings are the user's last choices, restored on the next start.
type Settings struct {
	DownloadMode   string `yaml:"download_mode"`
	LastResolution string `yaml:"last_resolution"`
}

func Defaults() Settings {
	return Settings{
		DownloadMode:   string(utils.ModeVideo),
		LastResolution: utils.FallbackResolution.String(),
	}
}

// Mode returns the stored mode, or video when the value is unusable.
func (s Settings) Mode() utils.DownloadMode {
	mode, err := utils.ParseDownloadMode(s.DownloadMode)
	if err != nil {
		return utils.ModeVideo
	}
	return mode
}

// Resolution returns the stored resolution, or the fallback when unusable.
func (s Settings) Resolution() utils.Resolution {
	res, err := utils.ParseResolution(s.LastResolution)
	if err != nil {
		return utils.FallbackResolution
	}
	return res
}

// Store persists Settings as YAML. It is safe for concurrent use.
type Store struct {
	path    string
	mu      sync.Mutex
	current Settings
}

// Load reads path. A missing file yields defaults; a corrupt one is logged
// and replaced by defaults on the next save.
func Load(path string) *Store {
	s := &Store{path: path, current: Defaults()}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s
	}
	if err != nil {
		log.Warn().Str("op", "settings/load").Err(err).Msg("cannot read settings, using defaults")
		return s
	}
	var loaded Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		log.Warn().Str("op", "settings/load").Err(err).Msg("corrupt settings file, using defaults")
		return s
	}
	if loaded.DownloadMode != "" {
		s.current.DownloadMode = loaded.DownloadMode
	}
	if loaded.LastResolution != "" {
		s.current.LastResolution = loaded.LastResolution
	}
	return s
}

func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Remember records the mode, and the resolution for video mode, then saves.
func (s *Store) Remember(mode utils.DownloadMode, res utils.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.DownloadMode = string(mode)
	if res > 0 {
		s.current.LastResolution = res.String()
	}
	return s.save()
}

func (s *Store) save() error {
	data, err := yaml.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating settings directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	log.Debug().Str("op", "settings/save").Str("path", s.path).Msg("settings saved")
	return nil
}

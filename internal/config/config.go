// Package config loads the daemon's JSON configuration document (§6):
// player backend entries, service settings, cache paths, and the
// action-plugin list. Secrets (API keys, OAuth client secrets) are
// loaded separately from the environment via godotenv so they never
// need to sit in the JSON document on disk.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// PlayerConfig is one entry of the top-level "players" array. Each
// entry has exactly one populated field; Type reports which.
type PlayerConfig struct {
	MPD         *MPDConfig         `json:"mpd,omitempty"`
	Spotify     *SpotifyConfig     `json:"spotify,omitempty"`
	Roon        *RoonConfig        `json:"roon,omitempty"`
	HTTPGeneric *HTTPGenericConfig `json:"http_generic,omitempty"`
	MPRIS       *MPRISConfig       `json:"mpris,omitempty"`
}

// Type reports the non-nil backend kind, or "" if none is set.
func (p PlayerConfig) Type() string {
	switch {
	case p.MPD != nil:
		return "mpd"
	case p.Spotify != nil:
		return "spotify"
	case p.Roon != nil:
		return "roon"
	case p.HTTPGeneric != nil:
		return "http_generic"
	case p.MPRIS != nil:
		return "mpris"
	default:
		return ""
	}
}

// Enabled reports whether the populated backend's enable flag is set.
// An entry with no populated backend is never enabled.
func (p PlayerConfig) Enabled() bool {
	switch {
	case p.MPD != nil:
		return p.MPD.Enable
	case p.Spotify != nil:
		return p.Spotify.Enable
	case p.Roon != nil:
		return p.Roon.Enable
	case p.HTTPGeneric != nil:
		return p.HTTPGeneric.Enable
	case p.MPRIS != nil:
		return p.MPRIS.Enable
	default:
		return false
	}
}

type MPDConfig struct {
	Enable      bool   `json:"enable"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Password    string `json:"password"`
	// MusicDir is the local filesystem root MPD serves its library
	// from (MPD's own music_directory). When set, the adapter falls
	// back to reading embedded/folder cover art directly from disk
	// for tracks MPD itself reports no artwork for.
	MusicDir string `json:"music_dir,omitempty"`
}

type SpotifyConfig struct {
	Enable      bool   `json:"enable"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	PipeSource  string `json:"pipe_source"`
}

type RoonConfig struct {
	Enable      bool   `json:"enable"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Source      string `json:"source"`
}

type HTTPGenericConfig struct {
	Enable      bool   `json:"enable"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// MPRISConfig enables scanning the session bus for org.mpris.MediaPlayer2.*
// services rather than naming one player explicitly (§4.10.5).
type MPRISConfig struct {
	Enable bool `json:"enable"`
}

// WebServerConfig configures the HTTP API listener.
type WebServerConfig struct {
	Enable bool   `json:"enable"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// VolumeConfig configures the cross-backend volume-mapping service.
type VolumeConfig struct {
	Enable bool `json:"enable"`
	Min    int  `json:"min"`
	Max    int  `json:"max"`
}

// MusicBrainzConfig configures the mbid lookup service (§4.6).
type MusicBrainzConfig struct {
	Enable    bool   `json:"enable"`
	UserAgent string `json:"user_agent"`
}

// MDNSConfig configures LAN service announcement.
type MDNSConfig struct {
	Enable bool   `json:"enable"`
	Name   string `json:"name"`
}

type ServicesConfig struct {
	WebServer   WebServerConfig   `json:"webserver"`
	Volume      VolumeConfig      `json:"volume"`
	MusicBrainz MusicBrainzConfig `json:"musicbrainz"`
	MDNS        MDNSConfig        `json:"mdns"`
}

type AttributeCacheConfig struct {
	Path      string `json:"path"`
	RedisAddr string `json:"redis_addr"`
}

type ImageCacheConfig struct {
	Path     string `json:"path"`
	UserPath string `json:"user_path"`
}

type CacheConfig struct {
	Attributes AttributeCacheConfig `json:"attributes"`
	Images     ImageCacheConfig     `json:"images"`
}

// Config is the top-level JSON document (§6).
type Config struct {
	Players        []PlayerConfig   `json:"players"`
	Services       ServicesConfig   `json:"services"`
	Cache          CacheConfig      `json:"cache"`
	ActionPlugins  []string         `json:"action_plugins"`
	SettingsDBPath string           `json:"settings_db_path"`
	SecurityDBPath string           `json:"security_db_path"`
}

// Secrets holds process-environment values never persisted to the
// JSON config: provider API keys and OAuth client credentials. Load
// from a .env file (if present) plus the real environment.
type Secrets struct {
	LastFMAPIKey         string
	LastFMAPISecret      string
	SpotifyClientID      string
	SpotifyClientSecret  string
	SpotifyRedirectURI   string
	SecurityEncryptionKey string
}

// Default returns a Config with no players, the webserver (0.0.0.0:8080)
// and volume services enabled, every other service disabled, and paths
// rooted under the XDG state/cache directories, suitable as a base
// before applying an on-disk document.
func Default() Config {
	return Config{
		Services: ServicesConfig{
			WebServer: WebServerConfig{Enable: true, Host: "0.0.0.0", Port: 8080},
			Volume:    VolumeConfig{Enable: true, Min: 0, Max: 100},
		},
		Cache: CacheConfig{
			Attributes: AttributeCacheConfig{Path: filepath.Join(xdg.CacheHome, "audiocontrold", "attributes")},
			Images:     ImageCacheConfig{Path: filepath.Join(xdg.CacheHome, "audiocontrold", "images")},
		},
		SettingsDBPath: filepath.Join(xdg.StateHome, "audiocontrold", "settings"),
		SecurityDBPath: filepath.Join(xdg.StateHome, "audiocontrold", "security"),
	}
}

// Load reads and parses the JSON document at path, applying it over
// Default. A missing file is not an error; Default is returned as-is
// so the daemon can still start with every player disabled.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadSecrets reads envPath (if present) into the process environment
// via godotenv, then collects the secret values the rest of the
// daemon needs. A missing envPath is not an error: secrets may already
// be set in the ambient environment (systemd, container, etc).
func LoadSecrets(envPath string) Secrets {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			// Non-fatal: fall through to whatever is already in the
			// environment.
			_ = err
		}
	}
	return Secrets{
		LastFMAPIKey:          os.Getenv("LASTFM_API_KEY"),
		LastFMAPISecret:       os.Getenv("LASTFM_API_SECRET"),
		SpotifyClientID:       os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret:   os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:    os.Getenv("SPOTIFY_REDIRECT_URI"),
		SecurityEncryptionKey: os.Getenv("ANCTL_SECRET"),
	}
}

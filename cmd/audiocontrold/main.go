// Command audiocontrold is the player-aggregation daemon: it wires up
// every configured player backend behind one registry (C12) and
// exposes the result over the HTTP API (C13).
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/config"
	"github.com/larsgrootkarzijn/audiocontrold/internal/discovery"
	"github.com/larsgrootkarzijn/audiocontrold/internal/favourites"
	inframpd "github.com/larsgrootkarzijn/audiocontrold/internal/infra/mpd"
	"github.com/larsgrootkarzijn/audiocontrold/internal/infra/httpfetch"
	"github.com/larsgrootkarzijn/audiocontrold/internal/jobs"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/artiststore"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/coverart"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/providers"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/httpgeneric"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/mpd"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/mpris"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/roon"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/spotify"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/registry"
	"github.com/larsgrootkarzijn/audiocontrold/internal/ratelimit"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/attributecache"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/imagecache"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/kvstore"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/security"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/settings"
	"github.com/larsgrootkarzijn/audiocontrold/internal/transport/httpapi"
	"github.com/larsgrootkarzijn/audiocontrold/internal/version"
)

func main() {
	configPath := flag.String("config", "/etc/audiocontrold/config.json", "path to the JSON config document")
	envPath := flag.String("env", "/etc/audiocontrold/.env", "path to a .env file holding provider secrets")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Player aggregation daemon")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	secrets := config.LoadSecrets(*envPath)

	settingsStore, settingsKV := mustOpenSettings(cfg.SettingsDBPath)
	defer settingsKV.Close()

	securityKey := securityKeyFor(secrets.SecurityEncryptionKey, settingsStore)
	securityKV, err := kvstore.Open(cfg.SecurityDBPath, "security")
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SecurityDBPath).Msg("failed to open security store")
	}
	defer securityKV.Close()
	securityStore := security.New(securityKV, securityKey)
	stateSigner := security.NewStateSigner(securityKey)

	attrCache := mustOpenAttributeCache(cfg.Cache.Attributes)

	imgCache, err := imagecache.New(cfg.Cache.Images.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Cache.Images.Path).Msg("failed to open image cache")
	}

	fetcher := httpfetch.New(10*time.Second, versionInfo.String())
	limiter := ratelimit.New()
	limiter.RegisterPerSecond("musicbrainz", 1)
	limiter.RegisterPerSecond("coverartarchive", 1)
	limiter.RegisterPerSecond("fanarttv", 2)

	coverManager := coverart.NewManager()
	coverManager.RegisterFetcher(providers.NewCoverArtArchive(fetcher, limiter))
	if cfg.Services.MusicBrainz.UserAgent != "" {
		coverManager.RegisterIdentifier(providers.NewMusicBrainz(fetcher, limiter, attrCache))
	}
	if secrets.LastFMAPIKey != "" {
		coverManager.RegisterFetcher(providers.NewLastFM(secrets.LastFMAPIKey, secrets.LastFMAPISecret, limiter))
	}

	artistStore := artiststore.New(imgCache, imgCache, coverManager, fetcher, attrCache)

	favManager := favourites.NewManager()
	favManager.Register(favourites.NewLocalProvider(settingsStore))

	jobTracker := jobs.NewTracker()

	reg := registry.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startPlayers(ctx, reg, cfg.Players, jobTracker, imgCache)

	server := &httpapi.Server{
		Registry:     reg,
		Favourites:   favManager,
		Jobs:         jobTracker,
		AttrCache:    attrCache,
		ImageCache:   imgCache,
		CoverArt:     coverManager,
		ArtistStore:  artistStore,
		Settings:     settingsStore,
		Security:     securityStore,
		StateSigner:  stateSigner,
		Fetcher:      fetcher,
		LastFMAPIKey: secrets.LastFMAPIKey,
		SpotifyOAuth: httpapi.SpotifyOAuthConfig{
			ClientID:     secrets.SpotifyClientID,
			ClientSecret: secrets.SpotifyClientSecret,
			RedirectURI:  secrets.SpotifyRedirectURI,
		},
	}

	var announcer *discovery.Announcer
	if cfg.Services.MDNS.Enable {
		announcer, err = discovery.Start(cfg.Services.MDNS.Name, cfg.Services.WebServer.Port)
		if err != nil {
			log.Warn().Err(err).Msg("mdns announcement disabled")
		}
	}

	httpServer := &http.Server{
		Addr:    cfg.Services.WebServer.Host + ":" + itoa(cfg.Services.WebServer.Port),
		Handler: server.Router(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
		announcer.Shutdown()
		stopPlayers(reg)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
	}()

	if !cfg.Services.WebServer.Enable {
		log.Fatal().Msg("webserver disabled in config, nothing to run")
	}

	log.Info().Str("addr", httpServer.Addr).Msg("http server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server error")
	}
	log.Info().Msg("stopped")
}

const settingsKeySecurityKey = "internal.security_key"

// securityKeyFor resolves the encryption key for the security store
// (C5): an explicit ANCTL_SECRET environment value wins; otherwise a
// key is generated once and persisted in the settings store so it
// survives restarts.
func securityKeyFor(envSecret string, s *settings.Store) []byte {
	if envSecret != "" {
		return []byte(envSecret)
	}
	if stored, ok := s.GetString(settingsKeySecurityKey); ok && stored != "" {
		return []byte(stored)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal().Err(err).Msg("failed to generate security key")
	}
	key := hex.EncodeToString(buf)
	if err := s.SetString(settingsKeySecurityKey, key); err != nil {
		log.Fatal().Err(err).Msg("failed to persist security key")
	}
	log.Info().Msg("ANCTL_SECRET not set, generated and persisted a new security key")
	return []byte(key)
}

func mustOpenSettings(path string) (*settings.Store, *kvstore.Store) {
	kv, err := kvstore.Open(path, "settings")
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to open settings store")
	}
	return settings.New(kv), kv
}

func mustOpenAttributeCache(cfg config.AttributeCacheConfig) *attributecache.Cache {
	disk, err := kvstore.Open(cfg.Path, "attributes")
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Path).Msg("failed to open attribute cache")
	}

	var mem *redis.Client
	if cfg.RedisAddr != "" {
		mem = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := mem.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, attribute cache running disk-only")
			mem = nil
		}
	}
	return attributecache.New(disk, mem, 10*time.Minute)
}

// startPlayers builds and starts one adapter per enabled config entry,
// registering each with reg.
func startPlayers(ctx context.Context, reg *registry.Registry, players []config.PlayerConfig, tracker *jobs.Tracker, imgCache *imagecache.Cache) {
	for _, p := range players {
		if !p.Enabled() {
			continue
		}
		switch p.Type() {
		case "mpd":
			startMPDPlayer(reg, p.MPD, tracker, imgCache)
		case "spotify":
			a := spotify.New(p.Spotify.ID, p.Spotify.DisplayName, p.Spotify.PipeSource)
			reg.Add(a)
			a.Start()
		case "roon":
			a := roon.New(p.Roon.ID, p.Roon.DisplayName, p.Roon.Source)
			reg.Add(a)
			a.Start()
		case "http_generic":
			a := httpgeneric.New(p.HTTPGeneric.ID, httpgeneric.Config{Name: p.HTTPGeneric.DisplayName})
			reg.Add(a)
			a.Start()
		case "mpris":
			startMPRISPlayers(ctx, reg)
		}
	}
}

func startMPDPlayer(reg *registry.Registry, cfg *config.MPDConfig, tracker *jobs.Tracker, imgCache *imagecache.Cache) {
	client := inframpd.NewClient(cfg.Host, cfg.Port, cfg.Password)
	if err := client.Connect(); err != nil {
		log.Error().Err(err).Str("host", cfg.Host).Msg("mpd connect failed, adapter disabled")
		return
	}
	a := mpd.New(cfg.ID, cfg.DisplayName, client)
	if cfg.MusicDir != "" {
		a.SetLocalArtSource(cfg.MusicDir, imgCache, "/api/mpd/localart/")
	}
	reg.Add(a)
	a.Start()

	go func() {
		if _, _, err := a.LoadLibrary(context.Background(), tracker); err != nil {
			log.Warn().Err(err).Str("id", cfg.ID).Msg("mpd library load failed")
		}
	}()
}

// startMPRISPlayers scans the session bus once at startup and adds one
// adapter per matching service. Services that appear later are not
// picked up without a restart; live rescanning is left to a future
// pass (§4.10.5 only requires mirroring whatever is found).
func startMPRISPlayers(ctx context.Context, reg *registry.Registry) {
	conn, err := dbus.SessionBus()
	if err != nil {
		log.Warn().Err(err).Msg("mpris disabled: no session bus")
		return
	}
	names, err := mpris.Scan(conn)
	if err != nil {
		log.Warn().Err(err).Msg("mpris scan failed")
		return
	}
	for _, name := range names {
		id := name
		a := mpris.New(conn, id, id, name)
		reg.Add(a)
		a.Start()
		log.Info().Str("bus_name", name).Msg("mpris player found")
	}
}

func stopPlayers(reg *registry.Registry) {
	for _, a := range reg.Players() {
		a.Stop()
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RealSaake/waveline-sub000/internal/adapters/rest"
	"github.com/RealSaake/waveline-sub000/internal/adapters/spotify"
	"github.com/RealSaake/waveline-sub000/internal/adapters/sqlite"
	"github.com/RealSaake/waveline-sub000/internal/audio"
	"github.com/RealSaake/waveline-sub000/internal/config"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
	"github.com/RealSaake/waveline-sub000/internal/poller"
	"github.com/RealSaake/waveline-sub000/internal/seal"
	"github.com/RealSaake/waveline-sub000/internal/session"
	"github.com/RealSaake/waveline-sub000/internal/stream"
)

var defaultScopes = []string{
	"streaming",
	"user-read-playback-state",
	"user-read-currently-playing",
}

func main() {
	// 1. Configuration (Environment Variables)
	// It's best practice to crash early if required config is missing.
	cfg := config.Load()
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		log.Fatal("FATAL: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET environment variables are required")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("FATAL: SESSION_SECRET environment variable is required")
	}

	sealer, err := seal.New(cfg.SessionSecret)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// 2. Initialize "Driven" Adapters (The Tools)
	// -- Token Vault
	var vault ports.TokenVault
	if cfg.DBPath != "" {
		dbVault, err := sqlite.NewVault(cfg.DBPath, sealer)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize token vault: %v", err)
		}
		defer dbVault.Close()
		vault = dbVault
	} else {
		vault = session.NewMemoryVault()
	}

	// 3. Initialize Core Logic (The Driver)
	// This is Dependency Injection in action: the session manager owns the
	// vault, the proxy borrows tokens from the manager, and the poller only
	// ever sees the proxy's now-playing view.
	sessions := session.NewManager(vault, nil, session.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       defaultScopes,
	}, nil)
	proxy := spotify.NewProxy(sessions, nil)

	negotiator := audio.NewNegotiator(
		nil, // element tap lives in the browser; the server never provides one
		audio.NewLoopbackCapturer(cfg.CaptureGranted),
		audio.NewPreviewDecoder(nil, nil),
		nil,
	)
	defer negotiator.Close()

	bus := stream.NewBroadcaster()
	pump := stream.NewPump(
		negotiator,
		audio.NewAnalyzer(),
		audio.NewBeatDetector(nil, cfg.BeatRefractory),
		bus,
		0,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The poller drives the negotiator: every track change triggers a fresh
	// source negotiation. Engage blocks while acquiring, so it runs off the
	// consumer goroutine.
	watch := poller.New(proxy, cfg.PollEngaged, cfg.PollIdle)
	go func() {
		if err := watch.Run(ctx); err != nil {
			log.Printf("WARN: playback poller stopped: %v", err)
		}
	}()
	go func() {
		for update := range watch.Updates() {
			if update.TrackChanged {
				go negotiator.Engage(ctx, update.Snapshot)
			}
		}
	}()
	go pump.Run(ctx)

	// 4. Initialize "Driving" Adapter (The Interface)
	cookies := rest.NewCookieCodec(sealer, cfg.CookieSecure)
	handler := rest.NewHandler(sessions, proxy, bus, cookies)

	// 5. Start the Server
	log.Println("------------------------------------------------")
	log.Printf("🎶 Waveline API is running on http://localhost:%d", cfg.Port)
	log.Println("------------------------------------------------")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}

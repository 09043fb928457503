package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pointage.org/internal/access"
	"pointage.org/internal/httpapi"
	"pointage.org/internal/obs"
	"pointage.org/internal/store/pg"
	"pointage.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Day boundaries follow the site's timezone; presence resets at local
	// midnight, so getting this wrong shifts everyone's workday.
	loc := time.Local
	if tz := os.Getenv("POINTAGE_TZ"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("load timezone %q: %v", tz, err)
		}
		loc = l
	}

	var (
		store   access.Store
		pgStore *pg.Store
		probe   httpapi.ReadyProbe
	)
	if dsn := os.Getenv("POINTAGE_PG_DSN"); dsn != "" {
		var err error
		pgStore, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		// Without a DSN the service runs on the in-memory store. Useful for
		// demos; everything is lost on restart.
		log.Println("POINTAGE_PG_DSN not set, using in-memory store")
		store = access.NewInMemory()
	}

	engine := access.NewEngine(store, access.WithLocation(loc))
	feed := stream.New()

	api := httpapi.New(probe, version, engine, feed)

	addr := os.Getenv("POINTAGE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting pointage-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}

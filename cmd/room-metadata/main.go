package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uf-rooms-api/internal/repository"
	"github.com/noah-isme/uf-rooms-api/internal/scraper"
	"github.com/noah-isme/uf-rooms-api/pkg/config"
	"github.com/noah-isme/uf-rooms-api/pkg/database"
	"github.com/noah-isme/uf-rooms-api/pkg/logger"
	"github.com/noah-isme/uf-rooms-api/pkg/storage"
)

const (
	outStdout   = "stdout"
	outFile     = "file"
	outPostgres = "postgres"
)

func main() {
	var (
		out      string
		key      string
		urlsFrom string
		listOnly bool
		label    string
		timeout  time.Duration
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flag.StringVar(&out, "out", outStdout, "Destination: stdout, file or postgres")
	flag.StringVar(&key, "key", cfg.Snapshot.MetadataKey, "Snapshot key to write")
	flag.StringVar(&urlsFrom, "urls-from", "", "Script or page to harvest campus map room URLs from")
	flag.BoolVar(&listOnly, "list", false, "Only print the harvested URLs")
	flag.StringVar(&label, "source", "campusmap.ufl.edu", "Source label stored in the snapshot")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall time limit")
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	sources := flag.Args()
	if urlsFrom != "" {
		text, err := os.ReadFile(urlsFrom)
		if err != nil {
			logr.Fatal("failed to read url source", zap.Error(err))
		}
		sources = append(sources, scraper.ExtractCampusURLs(string(text))...)
	}
	if listOnly {
		for _, source := range sources {
			fmt.Println(source)
		}
		return
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "usage: room-metadata [-out stdout|file|postgres] [-urls-from campus.js] page.html|url ...")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snapshot, err := scraper.NewCollector(nil, logr).Collect(ctx, sources, label)
	if err != nil {
		logr.Fatal("room metadata collection failed", zap.Error(err))
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		logr.Fatal("failed to encode snapshot", zap.Error(err))
	}

	switch out {
	case outStdout:
		_, _ = os.Stdout.Write(append(payload, '\n'))
	case outFile:
		local, err := storage.NewLocalStorage(cfg.Snapshot.Dir)
		if err != nil {
			logr.Fatal("failed to open snapshot dir", zap.Error(err))
		}
		if err := repository.NewFileSnapshotRepository(local).Save(ctx, key, payload); err != nil {
			logr.Fatal("failed to write snapshot", zap.Error(err))
		}
	case outPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		repo := repository.NewSnapshotRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logr.Fatal("failed to prepare snapshot table", zap.Error(err))
		}
		if err := repo.Save(ctx, key, payload); err != nil {
			logr.Fatal("failed to write snapshot", zap.Error(err))
		}
	default:
		logr.Fatal("unknown output", zap.String("out", out))
	}

	logr.Info("room metadata snapshot written",
		zap.String("out", out),
		zap.String("key", key),
		zap.Int("rooms", len(snapshot.Rooms)),
		zap.Int("sources", len(sources)),
	)
}

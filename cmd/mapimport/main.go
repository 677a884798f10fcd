// mapimport loads seat-map documents into the seat_maps table so the
// viewer can read them from MySQL instead of the map API.
//
//	mapimport [--id ID] FILE...
//
// Without --id each document is stored under its file name minus the
// extension.  Documents are decoded before saving; a file that does not
// decode is reported and skipped.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/venue-seatmap/internal/config"
	"github.com/iliyamo/venue-seatmap/internal/database"
	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/repository"
)

type saver interface {
	Save(ctx context.Context, mapID string, doc []byte) error
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var id string
	var timeout time.Duration
	flags := pflag.NewFlagSet("mapimport", pflag.ContinueOnError)
	flags.StringVar(&id, "id", "", "map id to store a single document under")
	flags.DurationVar(&timeout, "timeout", time.Minute, "overall time limit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	files := flags.Args()
	if len(files) == 0 {
		return errors.New("no documents given")
	}
	if id != "" && len(files) > 1 {
		return errors.New("--id needs exactly one document")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	db, err := database.Open(ctx, database.Settings(config.LoadDBConfig()))
	if err != nil {
		return err
	}
	defer db.Close()

	failed := importFiles(ctx, repository.NewMapRepo(db), id, files)
	if failed > 0 {
		return fmt.Errorf("%d of %d documents not imported", failed, len(files))
	}
	return nil
}

// importFiles saves every file and returns how many failed.
func importFiles(ctx context.Context, dst saver, id string, files []string) int {
	failed := 0
	for _, path := range files {
		mapID := id
		if mapID == "" {
			mapID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if err := importFile(ctx, dst, mapID, path); err != nil {
			log.Printf("mapimport: %s: %v", path, err)
			failed++
		}
	}
	return failed
}

func importFile(ctx context.Context, dst saver, mapID, path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := model.DecodeDocument(blob)
	if err != nil {
		return err
	}
	if err := dst.Save(ctx, mapID, blob); err != nil {
		return fmt.Errorf("save %s: %w", mapID, err)
	}
	log.Printf("mapimport: %s -> %s (%d objects, %d tiers, %d skipped)",
		path, mapID, len(doc.Objects), len(doc.Tiers), doc.Skipped)
	return nil
}

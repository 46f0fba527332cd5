package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/empowerfit/backend/internal/config"
	"github.com/empowerfit/backend/internal/db"
	"github.com/empowerfit/backend/internal/gymstats/weight"
	"github.com/empowerfit/backend/internal/logging"

	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	mode := flag.String("mode", "export", "export | import")
	userID := flag.String("user", "", "user id whose entries are exported / imported")
	file := flag.String("file", "", "csv file path, export default is weight-data-YYYY-MM-DD.csv, - for stdout/stdin")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogLevel:    cfg.LogLevel,
		LogToStdout: true,
	})

	if *userID == "" {
		log.Fatalln("user not set, use -user")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: cfg.PostgresPassword,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	repo := weight.NewRepo(dbPool)

	switch *mode {
	case "export":
		err = export(ctx, repo, *userID, *file)
	case "import":
		err = importEntries(ctx, repo, *userID, *file)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}
	if err != nil {
		log.Fatalf("%s: %s", *mode, err)
	}
}

func export(ctx context.Context, repo *weight.Repo, userID, path string) error {
	entries, err := repo.ListAll(ctx, userID, weight.ListParams{Ascending: true})
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	csvText := weight.ToCSV(entries)
	if path == "-" {
		_, err = fmt.Fprintln(os.Stdout, csvText)
		return err
	}
	if path == "" {
		path = weight.ExportFileName(time.Now())
	}
	if err := os.WriteFile(path, []byte(csvText), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Infof("exported %d entries to [%s]", len(entries), path)
	return nil
}

func importEntries(ctx context.Context, repo *weight.Repo, userID, path string) error {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	entries, err := weight.ParseCSV(string(raw))
	if err != nil {
		return err
	}

	imported, err := repo.AddBatch(ctx, userID, entries)
	if err != nil {
		return fmt.Errorf("add batch: %w", err)
	}

	log.Infof("imported %d entries for user [%s]", imported, userID)
	return nil
}

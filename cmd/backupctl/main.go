package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Chapsvision-dev/volume-backup-client/internal/auth"
	"github.com/Chapsvision-dev/volume-backup-client/internal/config"
	"github.com/Chapsvision-dev/volume-backup-client/internal/export"
	"github.com/Chapsvision-dev/volume-backup-client/internal/inventory"
	"github.com/Chapsvision-dev/volume-backup-client/internal/logx"
	"github.com/Chapsvision-dev/volume-backup-client/internal/version"
	"github.com/Chapsvision-dev/volume-backup-client/pkg/rest"
	"github.com/Chapsvision-dev/volume-backup-client/pkg/volumebackup"

	_ "github.com/Chapsvision-dev/volume-backup-client/internal/export/azure"
	_ "github.com/Chapsvision-dev/volume-backup-client/internal/export/local"
)

// Test seams: overridden in unit tests. Keep signatures in sync with packages.
var (
	loadConfig func() (config.Config, error)                                                                     = config.Load
	newClient  func(config.Config) (*volumebackup.Client, error)                                                 = buildClient
	newSink    func(name string, cfg any) (export.Sink, error)                                                   = export.New
	runExport  func(context.Context, inventory.Lister, export.Sink, inventory.Options) (inventory.Result, error) = inventory.Export
	exit       func(int)                                                                                         = os.Exit
)

const usage = `
Usage:
  backupctl create  [volumeID] [container] [name] [description]
  backupctl get     [backupID]
  backupctl list    [summary]
  backupctl delete  [backupID]
  backupctl restore [backupID] [volumeID]
  backupctl export  [targetPrefix]
  backupctl version | --version | -v
  backupctl help    | --help    | -h

Notes:
  - You can also set env vars:
      BACKUP_VOLUME_ID, BACKUP_CONTAINER, BACKUP_NAME, BACKUP_DESCRIPTION,
      BACKUP_ID, RESTORE_VOLUME_ID, EXPORT_TARGET
  - API endpoint/token: BLOCKSTORE_ENDPOINT (required), BLOCKSTORE_TOKEN or BLOCKSTORE_TOKEN_FILE
  - Export sink is selected with EXPORT_PROVIDER (default: file, EXPORT_DIR=./exports).
  - Without a volume ID, restore asks the service to create a new volume.
`

var errUsage = errors.New("usage")

// main wires CLI -> config -> transport -> managers.
// Exit codes: 0 success, 1 runtime error, 2 usage error.
func main() {
	_ = godotenv.Load() // best-effort
	logx.InitFromEnv()

	args := os.Args[1:]
	if len(args) < 1 {
		fmt.Print(usage)
		exit(2)
	}
	action := strings.ToLower(args[0])

	// Handle version command
	if action == "version" || action == "--version" || action == "-v" {
		fmt.Printf("backupctl %s\n", version.Info())
		exit(0)
	}

	// Handle help command
	if action == "help" || action == "--help" || action == "-h" {
		fmt.Print(usage)
		exit(0)
	}

	var run func(context.Context, config.Config, *volumebackup.Client) error
	switch action {
	case "create":
		run = runCreate
	case "get":
		run = runGet
	case "list":
		run = runList
	case "delete":
		run = runDelete
	case "restore":
		run = runRestore
	case "export":
		run = runInventoryExport
	default:
		fmt.Print(usage)
		exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("config error")
		exit(1)
	}

	client, err := newClient(cfg)
	if err != nil {
		log.Error().Err(err).Str("endpoint", cfg.Endpoint).Msg("client init error")
		exit(1)
	}

	ctx := withSignals(context.Background())

	start := time.Now()
	if err := run(ctx, cfg, client); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
			fmt.Print(usage)
			exit(2)
		}
		log.Error().Err(err).Str("action", action).Msg(action + " failed")
		exit(1)
	}
	log.Info().
		Str("action", action).
		Dur("elapsed_ms", time.Since(start)).
		Msg(action + " OK")
}

func buildClient(cfg config.Config) (*volumebackup.Client, error) {
	tokens, err := auth.New(cfg)
	if err != nil {
		return nil, err
	}
	opts := rest.Options{
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.HTTPTimeout,
		Retry:    cfg.RetryOptions(),
	}
	// Keep a nil Provider a nil TokenSource.
	if tokens != nil {
		opts.Tokens = tokens
	}
	transport, err := rest.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return volumebackup.NewClient(transport), nil
}

func runCreate(ctx context.Context, _ config.Config, c *volumebackup.Client) error {
	volumeID := pickArgOrEnv(2, "BACKUP_VOLUME_ID", "")
	if volumeID == "" {
		return fmt.Errorf("%w: volume ID is required", errUsage)
	}
	b, err := c.Backups.Create(ctx, volumeID, volumebackup.CreateOpts{
		Container:          pickArgOrEnv(3, "BACKUP_CONTAINER", ""),
		DisplayName:        pickArgOrEnv(4, "BACKUP_NAME", ""),
		DisplayDescription: pickArgOrEnv(5, "BACKUP_DESCRIPTION", ""),
	})
	if err != nil {
		return err
	}
	log.Info().Str("action", "create").Str("volume_id", volumeID).Str("backup_id", b.ID()).Msg("backup requested")
	return printJSON(b)
}

func runGet(ctx context.Context, _ config.Config, c *volumebackup.Client) error {
	id := pickArgOrEnv(2, "BACKUP_ID", "")
	if id == "" {
		return fmt.Errorf("%w: backup ID is required", errUsage)
	}
	b, err := c.Backups.Get(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(b)
}

func runList(ctx context.Context, _ config.Config, c *volumebackup.Client) error {
	detailed := true
	switch mode := strings.ToLower(pickArgOrEnv(2, "BACKUP_LIST_MODE", "detail")); mode {
	case "detail", "detailed":
	case "summary":
		detailed = false
	default:
		return fmt.Errorf("%w: unknown list mode %q", errUsage, mode)
	}
	backups, err := c.Backups.List(ctx, detailed)
	if err != nil {
		return err
	}
	return printJSON(backups)
}

func runDelete(ctx context.Context, _ config.Config, c *volumebackup.Client) error {
	id := pickArgOrEnv(2, "BACKUP_ID", "")
	if id == "" {
		return fmt.Errorf("%w: backup ID is required", errUsage)
	}
	return c.Backups.Delete(ctx, rest.ByID(id))
}

func runRestore(ctx context.Context, _ config.Config, c *volumebackup.Client) error {
	id := pickArgOrEnv(2, "BACKUP_ID", "")
	if id == "" {
		return fmt.Errorf("%w: backup ID is required", errUsage)
	}
	r, err := c.Restores.Restore(ctx, id, pickArgOrEnv(3, "RESTORE_VOLUME_ID", ""))
	if err != nil {
		return err
	}
	log.Info().Str("action", "restore").Str("backup_id", id).Str("volume_id", r.VolumeID()).Msg("restore requested")
	return printJSON(r)
}

func runInventoryExport(ctx context.Context, cfg config.Config, c *volumebackup.Client) error {
	if err := cfg.ValidateExport(); err != nil {
		return err
	}
	sink, err := newSink(cfg.ExportProvider, cfg)
	if err != nil {
		return fmt.Errorf("export sink init: %w", err)
	}
	res, err := runExport(ctx, c.Backups, sink, inventory.Options{
		RemotePrefix:    pickArgOrEnv(2, "EXPORT_TARGET", cfg.ExportTarget),
		TimestampFormat: cfg.ExportTimestampFormat,
	})
	if err != nil {
		return err
	}
	log.Info().
		Str("action", "export").
		Str("sink", sink.Name()).
		Str("remote", res.RemoteKey).
		Int("count", res.Count).
		Str("sha256", res.SHA256).
		Msg("inventory stored")
	return printJSON(map[string]any{
		"remote_key": res.RemoteKey,
		"count":      res.Count,
		"size":       res.Size,
		"sha256":     res.SHA256,
	})
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func pickArgOrEnv(idx int, env string, def string) string {
	if len(os.Args) > idx && os.Args[idx] != "" {
		return os.Args[idx]
	}
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	return def
}

func withSignals(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
		cancel()
	}()
	return ctx
}

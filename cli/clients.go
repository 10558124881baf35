package cli

import (
	"context"
	"database/sql"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/WorldObservationLog/NeuroTools/config"
	"github.com/WorldObservationLog/NeuroTools/db"
	"github.com/WorldObservationLog/NeuroTools/export"
	"github.com/WorldObservationLog/NeuroTools/retry"
	"github.com/WorldObservationLog/NeuroTools/twitchapi"
	"github.com/WorldObservationLog/NeuroTools/twitchgql"
	"github.com/WorldObservationLog/NeuroTools/vod"
)

// NewGQLClient builds a GQL client from configuration.
func NewGQLClient(cfg *config.Config) *twitchgql.Client {
	c := &twitchgql.Client{
		Endpoint: cfg.GQLEndpoint,
		ClientID: cfg.GQLClientID,
		Timeout:  cfg.GQLTimeout,
		Queries: twitchgql.Queries{
			Comments:         twitchgql.PersistedQuery{SHA256Hash: cfg.GQLHashComments},
			ChannelVideoCore: twitchgql.PersistedQuery{SHA256Hash: cfg.GQLHashVideoCore},
			VideoMetadata:    twitchgql.PersistedQuery{SHA256Hash: cfg.GQLHashVideoMetadata},
		},
		Retry: retry.Policy{
			Attempts: uint(cfg.GQLRetryAttempts),
			Delay:    cfg.GQLRetryDelay,
		},
	}
	if cfg.GQLRateLimit > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(cfg.GQLRateLimit), 1)
	}
	return c
}

// NewHelixClient builds an app-token Helix client from configuration.
func NewHelixClient(cfg *config.Config) *twitchapi.HelixClient {
	return &twitchapi.HelixClient{
		AppTokenSource: &twitchapi.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret},
		ClientID:       cfg.TwitchClientID,
	}
}

func (a *App) source() vod.Source {
	if a.Source != nil {
		return a.Source
	}
	return NewGQLClient(a.Config)
}

func (a *App) lister() (vod.VideoLister, error) {
	if a.Lister != nil {
		return a.Lister, nil
	}
	if err := a.Config.ValidateCatalogReady(); err != nil {
		return nil, err
	}
	return NewHelixClient(a.Config), nil
}

// openDB connects and migrates. Versioned migrations are preferred; the
// embedded statements cover databases that predate them.
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	database, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, falling back to embedded SQL",
			slog.Any("err", err), slog.String("component", "db_migrate"))
		if err := db.Migrate(ctx, database); err != nil {
			_ = database.Close()
			return nil, err
		}
	}
	return database, nil
}

// session is the scanner plus the stores behind it.
type session struct {
	scanner  *vod.Scanner
	db       *sql.DB
	catalogs []export.Catalog
}

func (r *session) Close() {
	if r.db == nil {
		return
	}
	if err := r.db.Close(); err != nil {
		slog.Error("failed to close database", slog.Any("err", err))
	}
}

// newSession builds a scanner exporting to outDir and, with DB_DSN set, to
// Postgres as well.
func (a *App) newSession(ctx context.Context, outDir string) (*session, error) {
	cfg := a.Config
	if outDir == "" {
		outDir = cfg.ExportDir
	}
	sess := &session{}
	files := export.FileStore{Dir: outDir}
	var store export.Store = files
	sess.catalogs = []export.Catalog{files}
	if cfg.DBDsn != "" {
		database, err := openDB(ctx, cfg.DBDsn)
		if err != nil {
			return nil, err
		}
		sess.db = database
		rows := &db.ExportStore{DB: database}
		store = export.MultiStore{files, rows}
		sess.catalogs = append(sess.catalogs, rows)
	}
	sess.scanner = &vod.Scanner{
		Source:      a.source(),
		Exporter:    &export.Exporter{Store: store, NewID: a.NewID},
		MaxPages:    cfg.MaxPages,
		Concurrency: cfg.ScanConcurrency,
		NewProgress: a.progress,
	}
	return sess, nil
}

func (a *App) retentionPolicy() export.RetentionPolicy {
	cfg := a.Config
	return export.RetentionPolicy{
		KeepDays:  cfg.RetentionKeepDays,
		KeepCount: cfg.RetentionKeepCount,
		DryRun:    cfg.RetentionDryRun,
		Interval:  cfg.RetentionInterval,
	}
}

package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/store"
)

// initStore opens and migrates the run store for driver, falling back to
// the configured driver when driver is empty.
func initStore(ctx context.Context, driver string) (store.Store, error) {
	if driver == "" {
		driver = cfg.Store.Driver
	}

	var (
		st  store.Store
		err error
	)
	switch driver {
	case "sqlite", "":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "hoodscore.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: database_url is required for the postgres driver (HOODSCORE_STORE_DATABASE_URL)")
		}
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

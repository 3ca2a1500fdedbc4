package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/HallyG/xerograb/internal/config"
	"github.com/HallyG/xerograb/internal/log"
	"github.com/HallyG/xerograb/internal/model"
	"github.com/HallyG/xerograb/internal/oauth"
	"github.com/HallyG/xerograb/internal/state"
	"github.com/HallyG/xerograb/internal/xero"
	"github.com/spf13/cobra"
)

var errNoToken = errors.New("no oauth token stored, run `xerograb auth` first")

// app holds what every command that talks to Xero needs.
type app struct {
	cfg     *config.Config
	catalog *model.Catalog
	store   *state.Store
}

func loadApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(config.New(), path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	catalog, err := model.Default()
	if err != nil {
		return nil, err
	}

	store, err := state.Open(cfg.StateFile)
	if err != nil {
		return nil, err
	}

	log.FromContext(ctx).Debug().Str("state.file", cfg.StateFile).Msg("loaded config")

	return &app{cfg: cfg, catalog: catalog, store: store}, nil
}

// client returns a Xero client authenticated with the stored token. Refreshed tokens are written
// back to the state file as soon as they are issued.
func (a *app) client(ctx context.Context) (xero.Client, error) {
	token := a.store.Token()
	if token == nil {
		return nil, errNoToken
	}

	ts := oauth.TokenSource(ctx, a.cfg.OAuth(), token, a.store.SetToken)

	return xero.New(oauth.NewHTTPClient(ctx, ts), a.catalog), nil
}

package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/greenbook-dev/greenbook/internal/config"
	"github.com/greenbook-dev/greenbook/internal/gitops"
	"github.com/greenbook-dev/greenbook/internal/ledger"
	"github.com/greenbook-dev/greenbook/internal/logging"
	"github.com/greenbook-dev/greenbook/internal/vendors"
)

// configFile is the per-books configuration file name.
const configFile = "greenbook.yaml"

// env bundles everything a command needs against one books directory.
type env struct {
	root    string
	cfg     *config.Config
	log     zerolog.Logger
	repo    *ledger.Repository
	vendors *vendors.Service
}

func loadEnv(dir string) (*env, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, configFile))
	if err != nil {
		return nil, fmt.Errorf("loading %s (run 'greenbook init'?): %w", configFile, err)
	}

	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	vendorDir, err := vendors.Load(root)
	if err != nil {
		return nil, err
	}

	store := ledger.NewFileStore(root, logging.Component(log, "ledger"))
	return &env{
		root:    root,
		cfg:     cfg,
		log:     log,
		repo:    ledger.NewRepository(store),
		vendors: vendorDir,
	}, nil
}

// snapshot commits the books directory when auto-commit is on. Failures are
// logged, never fatal: the ledger write already happened.
func (e *env) snapshot(message string) {
	if !e.cfg.Git.AutoCommit || !gitops.IsRepo(e.root) {
		return
	}
	hash, err := gitops.Snapshot(e.root, message, e.cfg.Git.AuthorName, e.cfg.Git.AuthorEmail)
	if err != nil {
		e.log.Warn().Err(err).Msg("git snapshot failed")
		return
	}
	e.log.Debug().Str("commit", hash).Msg("books snapshotted")
}

package cmd

import (
	"context"
	"log"
	"path/filepath"

	"github.com/hashmap-kz/storecrypt/pkg/storage"

	"github.com/hydrostats/tsfit/config"
	"github.com/hydrostats/tsfit/internal/opt/shared"
	"github.com/hydrostats/tsfit/internal/opt/supervisors/rendersuperv"
)

// RunRenderMode fits the model and renders one figure set for every
// configured backend, optionally archiving the result.
func RunRenderMode(ctx context.Context, cfg *config.Config) error {
	if err := registerBackends(cfg.Plot.Backends); err != nil {
		return err
	}

	var stor *storage.TransformingStorage
	if cfg.HasExternalStorageConfigured() {
		var err error
		stor, err = shared.SetupStorage(archiveDir(cfg))
		if err != nil {
			log.Fatal(err)
		}
		if err := shared.CheckManifest(cfg, cfg.Main.Directory); err != nil {
			log.Fatal(err)
		}
	}

	superv := rendersuperv.NewRenderSupervisor(cfg, &rendersuperv.RenderSupervisorOpts{
		Directory: cfg.Main.Directory,
	}, stor)

	if err := superv.FitModel(ctx); err != nil {
		return err
	}
	return superv.RenderAll(ctx, nil)
}

// archiveDir is where the local archive backend keeps figure sets; remote
// backends use it as a key prefix.
func archiveDir(cfg *config.Config) string {
	return filepath.ToSlash(filepath.Join(cfg.Main.Directory, "archive"))
}

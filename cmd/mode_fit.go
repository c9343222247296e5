package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/hydrostats/tsfit/config"
	"github.com/hydrostats/tsfit/internal/opt/supervisors/rendersuperv"
)

// RunFitMode fits the model once and prints the fit report as JSON.
func RunFitMode(ctx context.Context, cfg *config.Config) error {
	superv := rendersuperv.NewRenderSupervisor(cfg, &rendersuperv.RenderSupervisorOpts{
		Directory: cfg.Main.Directory,
	}, nil)

	if err := superv.FitModel(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(superv.FitStatus())
}

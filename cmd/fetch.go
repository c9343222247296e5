package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

type FetchFigureOpts struct {
	Addr string
}

// FetchFigure downloads a rendered figure from a serve-mode instance and
// writes it to destPath.
func FetchFigure(figureName, destPath string, opts *FetchFigureOpts) error {
	slog.Debug("figure fetch",
		slog.String("name", figureName),
		slog.String("dest", destPath),
	)

	baseAddr, err := addr(opts.Addr)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/figures/%s", baseAddr, figureName)

	client := resty.New()
	client.SetRetryCount(0)
	client.SetTimeout(30 * time.Second)

	resp, err := client.R().SetOutput(destPath).Get(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("server error: %s", resp.Status())
	}
	return nil
}

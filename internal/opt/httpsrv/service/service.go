package service

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashmap-kz/storecrypt/pkg/storage"

	"github.com/hydrostats/tsfit/internal/opt/httpsrv/model"
	"github.com/hydrostats/tsfit/internal/opt/jobq"
	"github.com/hydrostats/tsfit/internal/opt/optutils"
	"github.com/hydrostats/tsfit/internal/opt/shared/x/strx"
)

// FitReporter exposes the state of the fitting pipeline to the REST API.
type FitReporter interface {
	FitStatus() *model.FitStatus
	Backends() []string
}

type ControlService interface {
	Status() *model.ServerStatus
	FiguresSize() (*model.FiguresSize, error)
	ListFigures() ([]model.FigureInfo, error)
	GetFigure(ctx context.Context, filename string) (io.ReadCloser, error)
	SubmitRender(backends []string) error
}

type controlSvc struct {
	reporter    FitReporter
	baseDir     string
	runningMode string
	storage     *storage.TransformingStorage
	queue       *jobq.JobQueue
	renderFn    func(ctx context.Context, backends []string)
}

var _ ControlService = &controlSvc{}

type ControlServiceOpts struct {
	Reporter    FitReporter
	BaseDir     string
	RunningMode string
	Storage     *storage.TransformingStorage
	Queue       *jobq.JobQueue
	RenderFn    func(ctx context.Context, backends []string)
}

func NewControlService(opts *ControlServiceOpts) ControlService {
	return &controlSvc{
		reporter:    opts.Reporter,
		baseDir:     opts.BaseDir,
		runningMode: opts.RunningMode,
		storage:     opts.Storage,
		queue:       opts.Queue,
		renderFn:    opts.RenderFn,
	}
}

func (s *controlSvc) Status() *model.ServerStatus {
	// read-only; doesn't need to block

	status := &model.ServerStatus{
		RunningMode: s.runningMode,
	}
	if s.reporter != nil {
		status.Backends = s.reporter.Backends()
		status.FitStatus = s.reporter.FitStatus()
	}
	return status
}

func (s *controlSvc) FiguresSize() (*model.FiguresSize, error) {
	size, err := optutils.DirSize(s.baseDir, &optutils.DirSizeOpts{
		IgnoreErrPermission: true,
		IgnoreErrNotExist:   true,
	})
	if err != nil {
		return nil, err
	}
	return &model.FiguresSize{
		Bytes: size,
		IEC:   optutils.ByteCountIEC(size),
	}, nil
}

func (s *controlSvc) ListFigures() ([]model.FigureInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.FigureInfo{}, nil
		}
		return nil, err
	}

	infos := make([]fs.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return figureInfos(infos), nil
}

// figureInfos filters directory entries down to figure files and sorts
// them by name.
func figureInfos(entries []fs.FileInfo) []model.FigureInfo {
	r := []model.FigureInfo{}
	for _, info := range entries {
		if !isFigureFile(info.Name()) {
			continue
		}
		r = append(r, model.FigureInfo{
			Name:    info.Name(),
			Bytes:   info.Size(),
			ModTime: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(r, func(i, j int) bool {
		return r[i].Name < r[j].Name
	})
	return r
}

func isFigureFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".png", ".svg", ".pdf":
		return true
	}
	return false
}

func (s *controlSvc) GetFigure(ctx context.Context, filename string) (io.ReadCloser, error) {
	// 1) Fast-path: check that file exists locally
	// 2) Fetch from storage (if it's not nil)

	if filename != filepath.Base(filename) {
		return nil, fmt.Errorf("invalid figure name: %s", filename)
	}

	filePath := filepath.Join(s.baseDir, filename)
	slog.Debug("figure fetch, checking local file", slog.String("path", filePath))
	if optutils.FileExists(filePath) {
		return os.Open(filePath)
	}

	if s.storage == nil {
		return nil, fmt.Errorf("cannot find local file: %s", filePath)
	}

	slog.Debug("figure fetch, checking archive", slog.String("filename", filename))
	return s.storage.Get(ctx, filename)
}

func (s *controlSvc) SubmitRender(backends []string) error {
	if s.queue == nil || s.renderFn == nil {
		return fmt.Errorf("render is not available in %s mode", s.runningMode)
	}

	if len(backends) == 0 && s.reporter != nil {
		backends = s.reporter.Backends()
	}
	if s.reporter != nil {
		for _, b := range backends {
			if !strx.IsInList(b, s.reporter.Backends()) {
				return fmt.Errorf("unknown chart backend: %s", b)
			}
		}
	}

	return s.queue.Submit("render-figures", func(ctx context.Context) {
		s.renderFn(ctx, backends)
	})
}

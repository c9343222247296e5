package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/grafana/dskit/services"

	"github.com/hydrostats/tsfit/internal/opt/supervisors/rendersuperv"
)

type pipelineCmd int

const (
	pipelineCmdStart pipelineCmd = iota + 1
	pipelineCmdStop
)

// RenderPipelineService controls the fit-and-render loop. Pausing cancels
// the supervisor's child context (stopping scheduled re-renders); resuming
// starts it again with a fresh fit.
type RenderPipelineService struct {
	*services.BasicService
	log     *slog.Logger
	superv  *rendersuperv.RenderSupervisor
	ctrlCh  chan pipelineCmd
	mu      sync.Mutex
	running bool
}

func NewRenderPipelineService(superv *rendersuperv.RenderSupervisor) *RenderPipelineService {
	s := &RenderPipelineService{
		log:    slog.With("component", "render-pipeline"),
		superv: superv,
		ctrlCh: make(chan pipelineCmd),
	}

	s.BasicService = services.NewBasicService(nil, s.run, nil).
		WithName("render-pipeline")

	return s
}

func (s *RenderPipelineService) run(ctx context.Context) error {
	s.log.Info("render pipeline control loop started")

	var pipeCancel context.CancelFunc

	stopPipeline := func() {
		if pipeCancel != nil {
			pipeCancel()
			pipeCancel = nil
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}

	defer stopPipeline()

	startPipeline := func() {
		if pipeCancel != nil {
			// Already running
			return
		}
		s.log.Info("starting fit-and-render pipeline")

		var pipeCtx context.Context
		pipeCtx, pipeCancel = context.WithCancel(ctx)

		s.mu.Lock()
		s.running = true
		s.mu.Unlock()

		go func() {
			if err := s.superv.Run(pipeCtx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error("fit-and-render pipeline failed", slog.Any("err", err))
			} else {
				s.log.Info("fit-and-render pipeline stopped")
			}
		}()
	}

	startPipeline()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("render pipeline context canceled, stopping pipeline")
			return nil

		case cmd := <-s.ctrlCh:
			switch cmd {
			case pipelineCmdStart:
				startPipeline()
			case pipelineCmdStop:
				s.log.Info("stopping fit-and-render pipeline")
				stopPipeline()
			}
		}
	}
}

// Public API used by HTTP / CLI:

func (s *RenderPipelineService) Pause() {
	select {
	case s.ctrlCh <- pipelineCmdStop:
	default:
		s.log.Warn("Pause: ctrlCh full, dropping request")
	}
}

func (s *RenderPipelineService) Resume() {
	select {
	case s.ctrlCh <- pipelineCmdStart:
	default:
		s.log.Warn("Resume: ctrlCh full, dropping request")
	}
}

func (s *RenderPipelineService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

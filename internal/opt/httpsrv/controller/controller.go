package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/hydrostats/tsfit/internal/opt/httpsrv/model"
	"github.com/hydrostats/tsfit/internal/opt/httpsrv/service"
	"github.com/hydrostats/tsfit/internal/opt/jobq"
	"github.com/hydrostats/tsfit/internal/opt/optutils"
)

// PipelineController pauses and resumes the fit-and-render loop.
type PipelineController interface {
	Pause()
	Resume()
	IsRunning() bool
}

type ControlController struct {
	Service  service.ControlService
	Pipeline PipelineController
}

func NewController(s service.ControlService, p PipelineController) *ControlController {
	return &ControlController{
		Service:  s,
		Pipeline: p,
	}
}

func (c *ControlController) StatusHandler(w http.ResponseWriter, _ *http.Request) {
	status := c.Service.Status()
	optutils.WriteJSON(w, http.StatusOK, status)
}

func (c *ControlController) FiguresSizeHandler(w http.ResponseWriter, _ *http.Request) {
	size, err := c.Service.FiguresSize()
	if err != nil {
		optutils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	optutils.WriteJSON(w, http.StatusOK, size)
}

func (c *ControlController) FiguresListHandler(w http.ResponseWriter, _ *http.Request) {
	figures, err := c.Service.ListFigures()
	if err != nil {
		optutils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	optutils.WriteJSON(w, http.StatusOK, figures)
}

func (c *ControlController) FigureDownloadHandler(w http.ResponseWriter, r *http.Request) {
	filename, err := optutils.PathValueString(r, "filename")
	if err != nil {
		http.Error(w, "expect filename path-param", http.StatusBadRequest)
		return
	}

	file, err := c.Service.GetFigure(r.Context(), filename)
	if err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	if err != nil {
		http.Error(w, "cannot read file", http.StatusInternalServerError)
		return
	}
}

func (c *ControlController) RenderHandler(w http.ResponseWriter, r *http.Request) {
	var req model.RenderRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := optutils.ReadJSON(r, &req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
	}

	if err := c.Service.SubmitRender(req.Backends); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, jobq.ErrJobQueueFull) {
			status = http.StatusTooManyRequests
		}
		optutils.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	optutils.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (c *ControlController) PausePipeline(w http.ResponseWriter, _ *http.Request) {
	c.Pipeline.Pause()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pipeline paused"))
}

func (c *ControlController) ResumePipeline(w http.ResponseWriter, _ *http.Request) {
	c.Pipeline.Resume()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pipeline resumed"))
}

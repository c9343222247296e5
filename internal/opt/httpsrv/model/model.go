package model

type FiguresSize struct {
	Bytes int64  `json:"bytes,omitempty"`
	IEC   string `json:"iec,omitempty"`
}

type FitStatus struct {
	Model      string             `json:"model,omitempty"`
	Fitted     bool               `json:"fitted"`
	FittedAt   string             `json:"fitted_at,omitempty"`
	RMSE       float64            `json:"rmse,omitempty"`
	R2         float64            `json:"r2,omitempty"`
	EVP        float64            `json:"evp,omitempty"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

type FigureInfo struct {
	Name    string `json:"name"`
	Bytes   int64  `json:"bytes"`
	ModTime string `json:"mod_time,omitempty"`
}

type ServerStatus struct {
	RunningMode string     `json:"running_mode"`
	Backends    []string   `json:"backends,omitempty"`
	FitStatus   *FitStatus `json:"fit_status,omitempty"`
}

type RenderRequest struct {
	Backends []string `json:"backends,omitempty"`
}

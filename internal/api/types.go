package api

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// SequenceInput is one observation sequence: symbols for discrete models,
// vectors for Gaussian ones.
type SequenceInput struct {
	Symbols []int       `json:"symbols,omitempty" validate:"required_without=Vectors,excluded_with=Vectors,dive,gte=0"`
	Vectors [][]float64 `json:"vectors,omitempty" validate:"required_without=Symbols,excluded_with=Symbols,dive,required"`
}

type ClassifyRequest struct {
	Model string `json:"model,omitempty"`
	SequenceInput
	// Store keeps the result retrievable by id. Defaults to true.
	Store *bool `json:"store,omitempty"`
}

type BatchClassifyRequest struct {
	Model     string          `json:"model,omitempty"`
	Sequences []SequenceInput `json:"sequences" validate:"required,min=1,max=1024,dive"`
}

type EvaluateRequest struct {
	Model string `json:"model,omitempty"`
	SequenceInput
	IncludeTables bool `json:"include_tables,omitempty"`
}

type DecodeRequest struct {
	Model string `json:"model,omitempty"`
	SequenceInput
	// Class restricts decoding to one class; all classes when nil.
	Class *int `json:"class,omitempty" validate:"omitempty,gte=0"`
}

type ClassificationResponse struct {
	ID                     string     `json:"id"`
	Object                 string     `json:"object"`
	Created                int64      `json:"created"`
	Model                  string     `json:"model"`
	Class                  int        `json:"class"`
	Label                  string     `json:"label"`
	Rejected               bool       `json:"rejected"`
	Probabilities          []float64  `json:"probabilities"`
	Rejection              float64    `json:"rejection,omitempty"`
	LogLikelihoods         []LogValue `json:"log_likelihoods"`
	ThresholdLogLikelihood *LogValue  `json:"threshold_log_likelihood,omitempty"`
	Path                   []int      `json:"path,omitempty"`
	PathLogScore           *LogValue  `json:"path_log_score,omitempty"`
	DurationMS             float64    `json:"duration_ms"`
}

type BatchClassifyResponse struct {
	Object string                   `json:"object"`
	Model  string                   `json:"model"`
	Data   []ClassificationResponse `json:"data"`
}

type ClassEvaluation struct {
	Class         int         `json:"class"`
	Label         string      `json:"label"`
	LogLikelihood LogValue    `json:"log_likelihood"`
	Path          []int       `json:"path"`
	PathLogScore  LogValue    `json:"path_log_score"`
	Forward       [][]float64 `json:"forward,omitempty"`
	Backward      [][]float64 `json:"backward,omitempty"`
	Scaling       []float64   `json:"scaling,omitempty"`
	Posteriors    [][]float64 `json:"posteriors,omitempty"`
}

type EvaluateResponse struct {
	Object     string            `json:"object"`
	Model      string            `json:"model"`
	Classes    []ClassEvaluation `json:"classes"`
	DurationMS float64           `json:"duration_ms"`
}

type DecodedPath struct {
	Class    int      `json:"class"`
	Label    string   `json:"label"`
	Path     []int    `json:"path"`
	LogScore LogValue `json:"log_score"`
}

type DecodeResponse struct {
	Object string        `json:"object"`
	Model  string        `json:"model"`
	Paths  []DecodedPath `json:"paths"`
}

type ModelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

type ModelDetails struct {
	ID          string    `json:"id"`
	Object      string    `json:"object"`
	Name        string    `json:"name,omitempty"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	Input       string    `json:"input"`
	Classes     int       `json:"classes"`
	Labels      []string  `json:"labels,omitempty"`
	States      []int     `json:"states"`
	Symbols     int       `json:"symbols,omitempty"`
	Dimensions  int       `json:"dimensions,omitempty"`
	Priors      []float64 `json:"priors"`
	Threshold   bool      `json:"threshold"`
	Sensitivity float64   `json:"sensitivity,omitempty"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// LogValue is a log-likelihood or log score. -Inf, which JSON cannot carry,
// is written as the string "-inf".
type LogValue float64

func (v LogValue) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(v), -1) {
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(float64(v))
}

func (v *LogValue) UnmarshalJSON(b []byte) error {
	if string(b) == `"-inf"` {
		*v = LogValue(math.Inf(-1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("log value: %w", err)
	}
	*v = LogValue(f)
	return nil
}

func logValues(xs []float64) []LogValue {
	out := make([]LogValue, len(xs))
	for i, x := range xs {
		out[i] = LogValue(x)
	}
	return out
}

func logValuePtr(x float64) *LogValue {
	v := LogValue(x)
	return &v
}

// Package modelfile reads and writes model documents: HMMs, HMM and Gaussian
// classifiers, and hidden-state CRFs stored as JSON or YAML.
package modelfile

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// Kind selects how a document is turned into an inference engine.
type Kind string

const (
	KindHMM                Kind = "hmm"
	KindHMMClassifier      Kind = "hmm-classifier"
	KindGaussianClassifier Kind = "gaussian-classifier"
	KindHCRF               Kind = "hcrf"
)

// Document is the on-disk model representation. Probabilities are stored in
// linear space; HCRF weights are log-potentials.
type Document struct {
	Kind        Kind   `json:"kind" yaml:"kind" validate:"required,oneof=hmm hmm-classifier gaussian-classifier hcrf"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Labels names the classes in order. Optional.
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty" validate:"omitempty,dive,required"`
	// Priors are class priors; empty means uniform.
	Priors []float64 `json:"priors,omitempty" yaml:"priors,omitempty" validate:"omitempty,dive,gte=0,lte=1"`
	// Sensitivity scales the threshold model score. Zero means 1.
	Sensitivity float64 `json:"sensitivity,omitempty" yaml:"sensitivity,omitempty" validate:"gte=0"`

	Models    []HMM         `json:"models,omitempty" yaml:"models,omitempty" validate:"omitempty,dive"`
	Threshold *HMM          `json:"threshold,omitempty" yaml:"threshold,omitempty" validate:"omitempty"`
	Gaussian  []GaussianHMM `json:"gaussian,omitempty" yaml:"gaussian,omitempty" validate:"omitempty,dive"`
	HCRF      *HCRF         `json:"hcrf,omitempty" yaml:"hcrf,omitempty" validate:"omitempty"`

	Training *Training `json:"training,omitempty" yaml:"training,omitempty"`
}

// HMM is a discrete-emission hidden Markov model.
type HMM struct {
	Initial     []float64   `json:"initial" yaml:"initial" validate:"required,dive,gte=0,lte=1"`
	Transitions [][]float64 `json:"transitions" yaml:"transitions" validate:"required,dive,required,dive,gte=0,lte=1"`
	Emissions   [][]float64 `json:"emissions" yaml:"emissions" validate:"required,dive,required,dive,gte=0,lte=1"`
}

// GaussianHMM is a hidden Markov model with diagonal Gaussian emissions.
type GaussianHMM struct {
	Initial     []float64   `json:"initial" yaml:"initial" validate:"required,dive,gte=0,lte=1"`
	Transitions [][]float64 `json:"transitions" yaml:"transitions" validate:"required,dive,required,dive,gte=0,lte=1"`
	Means       [][]float64 `json:"means" yaml:"means" validate:"required,dive,required"`
	StdDevs     [][]float64 `json:"stddevs" yaml:"stddevs" validate:"required,dive,required,dive,gt=0"`
}

// HCRF holds per-class log-potential tables.
type HCRF struct {
	Initial     [][]Weight   `json:"initial" yaml:"initial" validate:"required"`
	Transitions [][][]Weight `json:"transitions" yaml:"transitions" validate:"required"`
	Emissions   [][][]Weight `json:"emissions" yaml:"emissions" validate:"required"`
}

// Training records how a model was produced.
type Training struct {
	Sequences     int       `json:"sequences" yaml:"sequences"`
	Topology      string    `json:"topology,omitempty" yaml:"topology,omitempty"`
	Iterations    []int     `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	LogLikelihood []float64 `json:"log_likelihood,omitempty" yaml:"log_likelihood,omitempty"`
}

// Weight is a log-potential. JSON has no infinities, so -Inf is written as
// the string "-inf". YAML uses its native -.inf.
type Weight float64

func (w Weight) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(w), -1) {
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(float64(w))
}

func (w *Weight) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if strings.EqualFold(s, "-inf") {
			*w = Weight(math.Inf(-1))
			return nil
		}
		return fmt.Errorf("modelfile: invalid weight %q", s)
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*w = Weight(f)
	return nil
}

// Classes returns the number of classes the document describes.
func (d *Document) Classes() int {
	switch d.Kind {
	case KindHMM, KindHMMClassifier:
		return len(d.Models)
	case KindGaussianClassifier:
		return len(d.Gaussian)
	case KindHCRF:
		if d.HCRF != nil {
			return len(d.HCRF.Initial)
		}
	}
	return 0
}

// Label returns the display name of class c.
func (d *Document) Label(c int) string {
	if c >= 0 && c < len(d.Labels) {
		return d.Labels[c]
	}
	return ""
}

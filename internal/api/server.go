package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/lattice/internal/inference"
	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/internal/version"
)

type Server struct {
	provider     EngineProvider
	store        *ResultStore
	log          logger.Logger
	clock        func() time.Time
	batchWorkers int
}

func NewServer(provider EngineProvider, store *ResultStore, log logger.Logger) *Server {
	if store == nil {
		store = NewResultStore(DefaultStoreCapacity)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		provider:     provider,
		store:        store,
		log:          log,
		clock:        time.Now,
		batchWorkers: runtime.GOMAXPROCS(0),
	}
}

// SetBatchWorkers bounds how many sequences of a batch are scored at once.
func (s *Server) SetBatchWorkers(n int) {
	if n > 0 {
		s.batchWorkers = n
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(s.requestContext)

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", handleMetrics)

	e.GET("/v1/models", instrument("models", s.handleListModels))
	e.GET("/v1/models/:id", instrument("model", s.handleGetModel))
	e.POST("/v1/classify", instrument("classify", s.handleClassify))
	e.POST("/v1/classify/batch", instrument("classify_batch", s.handleClassifyBatch))
	e.GET("/v1/classifications/:id", instrument("classification", s.handleGetClassification))
	e.DELETE("/v1/classifications/:id", instrument("classification_delete", s.handleDeleteClassification))
	e.POST("/v1/evaluate", instrument("evaluate", s.handleEvaluate))
	e.POST("/v1/decode", instrument("decode", s.handleDecode))
}

// requestContext tags every request with an id, echoed in X-Request-Id, and
// a logger carrying it.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		ctx := logger.WithContext(c.Request().Context(), s.log.With("request_id", id))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func instrument(endpoint string, h echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		apiRequests.WithLabelValues(endpoint).Inc()
		err := h(c)
		apiDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		return err
	}
}

func handleMetrics(c *echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version.String()})
}

func (s *Server) handleListModels(c *echo.Context) error {
	ids, err := s.provider.ListModels()
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	data := make([]ModelObject, 0, len(ids))
	for _, id := range ids {
		data = append(data, ModelObject{ID: id, Object: "model", OwnedBy: "local"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

func (s *Server) handleGetModel(c *echo.Context) error {
	var details ModelDetails
	err := s.provider.WithEngine(c.Request().Context(), c.Param("id"), func(engine inference.Engine) error {
		details = modelDetails(engine.Info())
		return nil
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

func (s *Server) handleClassify(c *echo.Context) error {
	req, err := decodeRequest[ClassifyRequest](c)
	if err != nil {
		return writeEngineError(c, err)
	}
	observeSequence(req.SequenceInput)

	var resp ClassificationResponse
	err = s.provider.WithEngine(c.Request().Context(), req.Model, func(engine inference.Engine) error {
		resp, err = s.classify(c.Request().Context(), engine, req.SequenceInput)
		return err
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	if req.Store == nil || *req.Store {
		s.store.Put(resp)
	}
	logger.FromContext(c.Request().Context()).Debug("classified sequence",
		"model", resp.Model, "class", resp.Class, "rejected", resp.Rejected)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleClassifyBatch(c *echo.Context) error {
	req, err := decodeRequest[BatchClassifyRequest](c)
	if err != nil {
		return writeEngineError(c, err)
	}

	out := BatchClassifyResponse{Object: "list", Data: make([]ClassificationResponse, len(req.Sequences))}
	err = s.provider.WithEngine(c.Request().Context(), req.Model, func(engine inference.Engine) error {
		out.Model = engine.Info().ID
		g, ctx := errgroup.WithContext(c.Request().Context())
		g.SetLimit(s.batchWorkers)
		for i, seq := range req.Sequences {
			observeSequence(seq)
			g.Go(func() error {
				resp, err := s.classify(ctx, engine, seq)
				if err != nil {
					return fmt.Errorf("sequence %d: %w", i, err)
				}
				out.Data[i] = resp
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) classify(ctx context.Context, engine inference.Engine, in SequenceInput) (ClassificationResponse, error) {
	res, err := engine.Classify(ctx, toInferenceRequest(in, false))
	if err != nil {
		return ClassificationResponse{}, err
	}
	info := engine.Info()
	observeDecision(info.ID, res.Rejected)
	resp := ClassificationResponse{
		ID:             newClassificationID(),
		Object:         "classification",
		Created:        s.clock().Unix(),
		Model:          info.ID,
		Class:          res.Class,
		Label:          res.Label,
		Rejected:       res.Rejected,
		Probabilities:  res.Probabilities,
		Rejection:      res.Rejection,
		LogLikelihoods: logValues(res.LogLikelihoods),
		Path:           res.Path,
		DurationMS:     float64(res.Duration) / float64(time.Millisecond),
	}
	if res.HasThreshold {
		resp.ThresholdLogLikelihood = logValuePtr(res.ThresholdLogLikelihood)
	}
	if !res.Rejected {
		resp.PathLogScore = logValuePtr(res.PathLogScore)
	}
	return resp, nil
}

func (s *Server) handleGetClassification(c *echo.Context) error {
	resp, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "classification not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteClassification(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "classification not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":      id,
		"object":  "classification.deleted",
		"deleted": true,
	})
}

func (s *Server) handleEvaluate(c *echo.Context) error {
	req, err := decodeRequest[EvaluateRequest](c)
	if err != nil {
		return writeEngineError(c, err)
	}
	observeSequence(req.SequenceInput)

	var resp EvaluateResponse
	err = s.provider.WithEngine(c.Request().Context(), req.Model, func(engine inference.Engine) error {
		ev, err := engine.Evaluate(c.Request().Context(), toInferenceRequest(req.SequenceInput, req.IncludeTables))
		if err != nil {
			return err
		}
		resp = EvaluateResponse{
			Object:     "evaluation",
			Model:      engine.Info().ID,
			Classes:    make([]ClassEvaluation, len(ev.Classes)),
			DurationMS: float64(ev.Duration) / float64(time.Millisecond),
		}
		for i, ce := range ev.Classes {
			resp.Classes[i] = ClassEvaluation{
				Class:         ce.Class,
				Label:         ce.Label,
				LogLikelihood: LogValue(ce.LogLikelihood),
				Path:          ce.Path,
				PathLogScore:  LogValue(ce.PathLogScore),
				Forward:       ce.Forward,
				Backward:      ce.Backward,
				Scaling:       ce.Scaling,
				Posteriors:    ce.Posteriors,
			}
		}
		return nil
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDecode(c *echo.Context) error {
	req, err := decodeRequest[DecodeRequest](c)
	if err != nil {
		return writeEngineError(c, err)
	}
	observeSequence(req.SequenceInput)

	var resp DecodeResponse
	err = s.provider.WithEngine(c.Request().Context(), req.Model, func(engine inference.Engine) error {
		info := engine.Info()
		if req.Class != nil && *req.Class >= info.Classes {
			return newInvalidRequest(fmt.Sprintf("class %d out of range, model has %d classes", *req.Class, info.Classes))
		}
		ev, err := engine.Evaluate(c.Request().Context(), toInferenceRequest(req.SequenceInput, false))
		if err != nil {
			return err
		}
		resp = DecodeResponse{Object: "decode", Model: info.ID}
		for _, ce := range ev.Classes {
			if req.Class != nil && ce.Class != *req.Class {
				continue
			}
			resp.Paths = append(resp.Paths, DecodedPath{
				Class:    ce.Class,
				Label:    ce.Label,
				Path:     ce.Path,
				LogScore: LogValue(ce.PathLogScore),
			})
		}
		return nil
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func modelDetails(info inference.ModelInfo) ModelDetails {
	return ModelDetails{
		ID:          info.ID,
		Object:      "model",
		Name:        info.Name,
		Kind:        info.Kind,
		Description: info.Description,
		Input:       string(info.Input),
		Classes:     info.Classes,
		Labels:      info.Labels,
		States:      info.States,
		Symbols:     info.Symbols,
		Dimensions:  info.Dimensions,
		Priors:      info.Priors,
		Threshold:   info.Threshold,
		Sensitivity: info.Sensitivity,
	}
}

// Package rides is the HTTP transport of the prediction service.
package rides

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/ridefair/core/metrics"
	"github.com/kilianp07/ridefair/core/model"
	"github.com/kilianp07/ridefair/core/predict"
	"github.com/kilianp07/ridefair/infra/logger"
	"github.com/kilianp07/ridefair/pkg/report"
)

// OnlineMessage is the body of GET /.
const OnlineMessage = "RideFair AI is Online."

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Predictor is the subset of predict.Service used by the handlers.
type Predictor interface {
	PredictPrice(distanceKM float64, hour int, isWeekend bool) (predict.PriceResult, error)
	DetectScam(distanceKM, priceAsked float64) (predict.ScamResult, error)
	ListHotspots() []model.Location
}

// EventPublisher receives one event per answered or rejected prediction.
// Publish must not block.
type EventPublisher interface {
	Publish(ev coremetrics.PredictionEvent)
}

// PriceRequest is the body of POST /predict-price.
type PriceRequest struct {
	DistanceKM *float64 `json:"distance_km" validate:"required"`
	Hour       *int     `json:"hour" validate:"required"`
	IsWeekend  *int     `json:"is_weekend" validate:"required,oneof=0 1"`
}

// ScamRequest is the body of POST /detect-scam.
type ScamRequest struct {
	DistanceKM *float64 `json:"distance_km" validate:"required"`
	PriceAsked *float64 `json:"price_asked" validate:"required"`
}

// HotspotsResponse is the body of GET /hotspots.
type HotspotsResponse struct {
	Hotspots []model.Location `json:"hotspots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Handler serves the prediction routes.
type Handler struct {
	pred   Predictor
	events EventPublisher
	log    logger.Logger
	now    func() time.Time
}

// NewHandler returns a Handler. events and log may be nil.
func NewHandler(pred Predictor, events EventPublisher, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{pred: pred, events: events, log: log, now: time.Now}
}

// Register adds the prediction routes to mux. Requests with the wrong
// method get a 405 from the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /predict-price", h.predictPrice)
	mux.HandleFunc("POST /detect-scam", h.detectScam)
	mux.HandleFunc("GET /hotspots", h.hotspots)
	mux.HandleFunc("GET /hotspots/chart", h.hotspotChart)
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": OnlineMessage})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "hotspots": len(h.pred.ListHotspots())})
}

func (h *Handler) predictPrice(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	var req PriceRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev := coremetrics.PredictionEvent{
		Kind:       coremetrics.KindPrice,
		DistanceKM: *req.DistanceKM,
		Hour:       *req.Hour,
		IsWeekend:  *req.IsWeekend == 1,
	}
	res, err := h.pred.PredictPrice(ev.DistanceKM, ev.Hour, ev.IsWeekend)
	if err != nil {
		h.publish(ev, start, err)
		h.writeDomainError(w, err)
		return
	}
	ev.FairPrice = res.FairPrice
	h.publish(ev, start, nil)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) detectScam(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	var req ScamRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev := coremetrics.PredictionEvent{
		Kind:       coremetrics.KindScam,
		DistanceKM: *req.DistanceKM,
		PriceAsked: *req.PriceAsked,
	}
	res, err := h.pred.DetectScam(ev.DistanceKM, ev.PriceAsked)
	if err != nil {
		h.publish(ev, start, err)
		h.writeDomainError(w, err)
		return
	}
	ev.Verdict = res.Verdict
	ev.Probability = res.ScamProbability
	h.publish(ev, start, nil)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) hotspots(w http.ResponseWriter, _ *http.Request) {
	start := h.now()
	locs := h.pred.ListHotspots()
	h.publish(coremetrics.PredictionEvent{Kind: coremetrics.KindHotspots, Hotspots: len(locs)}, start, nil)
	h.writeJSON(w, http.StatusOK, HotspotsResponse{Hotspots: locs})
}

func (h *Handler) hotspotChart(w http.ResponseWriter, _ *http.Request) {
	html, err := report.HotspotChartHTML(h.pred.ListHotspots(), nil)
	if err != nil {
		h.log.Errorf("render hotspot chart: %v", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "chart rendering failed"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.WriteString(w, html); err != nil {
		h.log.Warnf("write hotspot chart: %v", err)
	}
}

// decode reads a single JSON object into dst and validates it. It writes the
// error response and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			h.writeJSON(w, http.StatusUnprocessableEntity,
				errorResponse{Error: fmt.Sprintf("invalid %s: expected %s", typeErr.Field, typeErr.Type)})
			return false
		}
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body: " + err.Error()})
		return false
	}
	if dec.More() {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body: trailing data"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, predict.ErrInvalidInput) {
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	h.log.Errorf("prediction failed: %v", err)
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func (h *Handler) publish(ev coremetrics.PredictionEvent, start time.Time, err error) {
	if h.events == nil {
		return
	}
	now := h.now()
	ev.ID = uuid.NewString()
	ev.Time = now
	ev.Latency = now.Sub(start)
	if err != nil {
		ev.Err = err.Error()
	}
	h.events.Publish(ev)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warnf("encode response: %v", err)
	}
}

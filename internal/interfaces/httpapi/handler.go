package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
	"github.com/riskibarqy/pitchwatch/internal/domain/quota"
	"github.com/riskibarqy/pitchwatch/internal/usecase"
)

type Handler struct {
	syncService     *usecase.MatchSyncService
	analysisService *usecase.AnalysisService
	quotaService    *usecase.QuotaService
	hiddenService   *usecase.HiddenService
	historyService  *usecase.HistoryService
	warmService     *usecase.WarmService
	logger          *slog.Logger
	validator       *validator.Validate
	clock           func() time.Time
}

func NewHandler(
	syncService *usecase.MatchSyncService,
	analysisService *usecase.AnalysisService,
	quotaService *usecase.QuotaService,
	hiddenService *usecase.HiddenService,
	historyService *usecase.HistoryService,
	warmService *usecase.WarmService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		syncService:     syncService,
		analysisService: analysisService,
		quotaService:    quotaService,
		hiddenService:   hiddenService,
		historyService:  historyService,
		warmService:     warmService,
		logger:          logger,
		validator:       validator.New(),
		clock:           time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	date := h.requestDate(r)
	res, err := h.syncService.Sync(ctx, date)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	visible, err := h.hiddenService.Filter(ctx, res.Fixtures)
	if err != nil {
		h.logger.WarnContext(ctx, "hidden filter failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, syncResultToDTO(ctx, res, visible))
}

func (h *Handler) ListLiveMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveMatches")
	defer span.End()

	date := h.requestDate(r)
	res, err := h.syncService.Sync(ctx, date)
	if err != nil {
		h.logger.WarnContext(ctx, "list live matches failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	visible, err := h.hiddenService.Filter(ctx, res.Fixtures)
	if err != nil {
		h.logger.WarnContext(ctx, "hidden filter failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	live := make([]fixture.Fixture, 0, len(visible))
	for _, f := range visible {
		if fixture.IsLiveStatus(f.Status) {
			live = append(live, f)
		}
	}

	writeSuccess(ctx, w, http.StatusOK, syncResultToDTO(ctx, res, live))
}

func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetQuota")
	defer span.End()

	agg, err := h.quotaService.Aggregate(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "quota aggregate failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, agg)
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Analyze")
	defer span.End()

	var req analyzeRequestDTO
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := h.analysisService.Analyze(ctx, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "analyze failed", "fixture_id", req.FixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	// Exhausted quota is a valid outcome, not an error: the client
	// learns it from the quotaExceeded flag.
	writeSuccess(ctx, w, http.StatusOK, res)
}

func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAnalysis")
	defer span.End()

	fixtureID, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("fixtureID")), 10, 64)
	if err != nil || fixtureID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: fixture id must be a positive integer", usecase.ErrInvalidInput))
		return
	}

	stored, found, err := h.analysisService.Stored(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get analysis failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: no analysis for fixture %d", usecase.ErrNotFound, fixtureID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stored)
}

func (h *Handler) BatchAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BatchAnalyze")
	defer span.End()

	var req batchAnalyzeRequestDTO
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	inputs := make([]usecase.AnalyzeRequest, 0, len(req.Fixtures))
	for _, item := range req.Fixtures {
		inputs = append(inputs, item.toInput())
	}

	res, err := h.analysisService.BatchAnalyze(ctx, inputs)
	if err != nil {
		h.logger.WarnContext(ctx, "batch analyze failed", "fixtures", len(req.Fixtures), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, res)
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHistory")
	defer span.End()

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	var (
		items any
		err   error
	)
	if date == "" {
		items, err = h.historyService.ListAll(ctx)
	} else {
		items, err = h.historyService.ListByDate(ctx, date)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "list history failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListHistoryDates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHistoryDates")
	defer span.End()

	dates, err := h.historyService.Dates(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list history dates failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dates)
}

func (h *Handler) ListHidden(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHidden")
	defer span.End()

	ids, err := h.hiddenService.List(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list hidden failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, hiddenListDTO{FixtureIDs: ids})
}

func (h *Handler) UpdateHidden(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateHidden")
	defer span.End()

	var req updateHiddenRequestDTO
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	var (
		ids []int64
		err error
	)
	if *req.Hidden {
		ids, err = h.hiddenService.Hide(ctx, req.FixtureID)
	} else {
		ids, err = h.hiddenService.Unhide(ctx, req.FixtureID)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "update hidden failed", "fixture_id", req.FixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, hiddenListDTO{FixtureIDs: ids})
}

func (h *Handler) RunWarmSnapshotsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunWarmSnapshotsJob")
	defer span.End()

	req := warmSnapshotsRequestDTO{Days: 3}
	if r.Body != nil && r.ContentLength != 0 {
		decoder := jsoniter.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
			return
		}
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	dates := req.Dates
	if len(dates) == 0 {
		dates = h.warmService.UpcomingDates(req.Days)
	}

	res, err := h.warmService.Warm(ctx, dates)
	if err != nil {
		h.logger.WarnContext(ctx, "warm snapshots job failed", "dates", len(dates), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, res)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) requestDate(r *http.Request) string {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = h.clock().UTC().Format("2006-01-02")
	}
	return date
}

type analyzeRequestDTO struct {
	FixtureID int64  `json:"fixtureId" validate:"required,gt=0"`
	HomeID    int    `json:"homeId" validate:"required,gt=0"`
	AwayID    int    `json:"awayId" validate:"required,gt=0"`
	LeagueID  int    `json:"leagueId" validate:"required,gt=0"`
	Season    int    `json:"season" validate:"gte=0"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (d analyzeRequestDTO) toInput() usecase.AnalyzeRequest {
	return usecase.AnalyzeRequest{
		FixtureID: d.FixtureID,
		HomeID:    d.HomeID,
		AwayID:    d.AwayID,
		LeagueID:  d.LeagueID,
		Season:    d.Season,
		Date:      d.Date,
	}
}

type batchAnalyzeRequestDTO struct {
	Fixtures []analyzeRequestDTO `json:"fixtures" validate:"required,min=1,max=50,dive"`
}

type updateHiddenRequestDTO struct {
	FixtureID int64 `json:"fixtureId" validate:"required,gt=0"`
	Hidden    *bool `json:"hidden" validate:"required"`
}

type hiddenListDTO struct {
	FixtureIDs []int64 `json:"fixtureIds"`
}

type warmSnapshotsRequestDTO struct {
	Days  int      `json:"days" validate:"gte=0,lte=14"`
	Dates []string `json:"dates" validate:"omitempty,max=14,dive,datetime=2006-01-02"`
}

type matchDayDTO struct {
	Date                 string            `json:"date"`
	Source               string            `json:"source"`
	Matches              []fixture.Fixture `json:"matches"`
	LiveUpdated          int               `json:"liveUpdated,omitempty"`
	FetchedAt            string            `json:"fetchedAt"`
	NextRefreshInSeconds int               `json:"nextRefreshInSeconds"`
	Quota                quota.Quota       `json:"quota"`
}

func syncResultToDTO(ctx context.Context, res usecase.SyncResult, visible []fixture.Fixture) matchDayDTO {
	ctx, span := startSpan(ctx, "httpapi.syncResultToDTO")
	defer span.End()

	fetchedAt := ""
	if !res.FetchedAt.IsZero() {
		fetchedAt = res.FetchedAt.UTC().Format(time.RFC3339)
	}
	return matchDayDTO{
		Date:                 res.Date,
		Source:               res.Source,
		Matches:              visible,
		LiveUpdated:          res.LiveUpdated,
		FetchedAt:            fetchedAt,
		NextRefreshInSeconds: int(res.NextRefreshIn / time.Second),
		Quota:                res.Quota,
	}
}

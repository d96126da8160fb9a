package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/matches/live", handler.ListLiveMatches)
	mux.HandleFunc("GET /v1/quota", handler.GetQuota)
}

func registerAnalysisRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/analysis", handler.Analyze)
	mux.HandleFunc("POST /v1/analysis/batch", handler.BatchAnalyze)
	mux.HandleFunc("GET /v1/analysis/{fixtureID}", handler.GetAnalysis)
	mux.HandleFunc("GET /v1/history", handler.ListHistory)
	mux.HandleFunc("GET /v1/history/dates", handler.ListHistoryDates)
}

func registerHiddenRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/hidden", handler.ListHidden)
	mux.HandleFunc("POST /v1/hidden", handler.UpdateHidden)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/warm-snapshots", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunWarmSnapshotsJob)))
}

package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"haus_search/internal/adapters/observability"
	"haus_search/internal/app"
	"haus_search/internal/domain"
	"haus_search/internal/nlu"
	"haus_search/internal/ratelimit"
)

type Handlers struct {
	Q      *app.SearchService
	Policy *ratelimit.Policy
	Limits ratelimit.Limits
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// envelope wraps extraction responses for the voice/search surfaces.
type envelope struct {
	Success        bool   `json:"success"`
	Data           any    `json:"data,omitempty"`
	Error          string `json:"error,omitempty"`
	RequestID      string `json:"requestId"`
	ProcessingTime int64  `json:"processingTime"` // wall-clock ms
	Timestamp      string `json:"timestamp"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(RateLimit(h.Policy, h.Limits.Voice))
		r.Post("/v1/voice/search", h.voiceSearch)
	})
	s.mux.Group(func(r chi.Router) {
		r.Use(RateLimit(h.Policy, h.Limits.Search))
		r.Post("/v1/search", h.search)
	})
	s.mux.Group(func(r chi.Router) {
		r.Use(RateLimit(h.Policy, h.Limits.API))
		r.Get("/v1/listings", h.listListings)
		r.Get("/v1/listings/{id}", h.getListing)
		r.Get("/v1/reports/{id}", h.getReport)
	})

	// operational tooling; not rate limited
	s.mux.Post("/v1/admin/blocks", h.blockIP)
	s.mux.Get("/v1/admin/blocks/{ip}", h.blockStatus)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- voice / text search ----

type searchRequest struct {
	Text        string                   `json:"text"`
	PriorParams *domain.SearchParameters `json:"priorParams,omitempty"`
	SessionID   string                   `json:"sessionId,omitempty"`
}

type voiceSearchData struct {
	domain.ExtractionResult
	OriginalText string `json:"originalText"`
}

func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "body must be JSON with a text field")
		return req, false
	}
	if n := utf8.RuneCountInString(req.Text); n < 1 || n > 2000 {
		writeProblem(w, http.StatusBadRequest, "Invalid text", "text must be 1-2000 characters")
		return req, false
	}
	return req, true
}

func (h *Handlers) voiceSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	res := nlu.Extract(req.Text, req.PriorParams)
	observability.ObserveExtraction(sourceFields(res.ParameterSources), res.Confidence)

	writeJSON(w, http.StatusOK, envelope{
		Success:        true,
		Data:           voiceSearchData{ExtractionResult: res, OriginalText: req.Text},
		RequestID:      uuid.NewString(),
		ProcessingTime: time.Since(start).Milliseconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

type searchData struct {
	domain.ExtractionResult
	OriginalText string        `json:"originalText"`
	Listings     []listingView `json:"listings"`
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	res := nlu.Extract(req.Text, req.PriorParams)
	observability.ObserveExtraction(sourceFields(res.ParameterSources), res.Confidence)

	page, err := h.Q.ListListings(r.Context(), app.ParamsToQuery(res.Parameters, 25))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{
			Success:   false,
			Error:     "search failed",
			RequestID: uuid.NewString(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: searchData{
			ExtractionResult: res,
			OriginalText:     req.Text,
			Listings:         toListingViews(page.Items),
		},
		RequestID:      uuid.NewString(),
		ProcessingTime: time.Since(start).Milliseconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

func sourceFields(src domain.ParameterSources) []string {
	out := make([]string, 0, len(src))
	for k := range src {
		out = append(out, k)
	}
	return out
}

// ---- listings / reports ----

type listingView struct {
	ID          int64    `json:"id"`
	Suburb      *string  `json:"suburb,omitempty"`
	State       *string  `json:"state,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Type        *string  `json:"type,omitempty"`
	ListingType *string  `json:"listingType,omitempty"`
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *int     `json:"bathrooms,omitempty"`
	Parking     *int     `json:"parking,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	Images      []string `json:"images,omitempty"`
}

func toListingViews(ls []domain.Listing) []listingView {
	out := make([]listingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, listingView{
			ID: l.ID, Suburb: l.Suburb, State: l.State, Address: l.Address,
			Type: l.Type, ListingType: l.ListingType,
			Bedrooms: l.Bedrooms, Bathrooms: l.Bathrooms, Parking: l.Parking,
			Price: l.Price, Amenities: l.Amenities, Images: l.Images,
		})
	}
	return out
}

func (h *Handlers) listListings(w http.ResponseWriter, r *http.Request) {
	q := domain.ListingsQuery{Limit: 50}
	qs := r.URL.Query()
	if v := qs.Get("suburb"); v != "" {
		q.Suburb = &v
	}
	if v := qs.Get("type"); v != "" {
		q.Type = &v
	}
	if v := qs.Get("listingType"); v != "" {
		q.ListingType = &v
	}
	if v := qs.Get("amenity"); v != "" {
		q.Amenity = &v
	}
	if v := qs.Get("minBeds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid minBeds", "minBeds must be a non-negative integer")
			return
		}
		q.MinBeds = &n
	}
	if v := qs.Get("minBaths"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid minBaths", "minBaths must be a non-negative integer")
			return
		}
		q.MinBaths = &n
	}
	if v := qs.Get("priceMin"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid priceMin", "priceMin must be a number")
			return
		}
		q.PriceMin = &f
	}
	if v := qs.Get("priceMax"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid priceMax", "priceMax must be a number")
			return
		}
		q.PriceMax = &f
	}
	if v := qs.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}

	page, err := h.Q.ListListings(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing query failed")
		return
	}
	out := struct {
		Items []listingView `json:"items"`
	}{Items: toListingViews(page.Items)}

	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listListings body")
	}
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	l, err := h.Q.GetListing(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "listing not found")
		return
	}
	views := toListingViews([]domain.Listing{l})

	etag, body := calcETagAndBody(views[0])
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getListing body")
	}
}

func (h *Handlers) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	rep, err := h.Q.GetReport(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "report not found")
		return
	}
	out := struct {
		ID           int64    `json:"id"`
		ListingID    int64    `json:"listingId"`
		Suburb       *string  `json:"suburb,omitempty"`
		Estimate     *float64 `json:"estimate,omitempty"`
		LowEstimate  *float64 `json:"lowEstimate,omitempty"`
		HighEstimate *float64 `json:"highEstimate,omitempty"`
		Summary      *string  `json:"summary,omitempty"`
	}{rep.ID, rep.ListingID, rep.Suburb, rep.Estimate, rep.LowEstimate, rep.HighEstimate, rep.Summary}
	writeJSON(w, http.StatusOK, out)
}

// ---- admin block ops ----

type blockRequest struct {
	IP         string `json:"ip"`
	Reason     string `json:"reason"`
	DurationMs int64  `json:"durationMs"`
}

func (h *Handlers) blockIP(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IP == "" || req.DurationMs <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "ip and a positive durationMs are required")
		return
	}
	if err := h.Policy.BlockIP(r.Context(), req.IP, req.Reason, time.Duration(req.DurationMs)*time.Millisecond); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "block write failed")
		return
	}
	log.Info().Str("ip", req.IP).Str("reason", req.Reason).Int64("durationMs", req.DurationMs).Msg("manual ip block")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) blockStatus(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	blocked, err := h.Policy.IsIPBlocked(r.Context(), ip)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "block lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ip": ip, "blocked": blocked})
}

package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tourbook/internal/app"
	"tourbook/internal/domain"
	"tourbook/internal/pricing"
)

const (
	dateLayout   = "2006-01-02"
	maxBatchBody = 1 << 20
)

type Handlers struct {
	Q        *app.QueryService
	Quotes   *app.QuoteService
	Cmd      *app.CommandService
	Validate *validator.Validate
}

func NewHandlers(q *app.QueryService, quotes *app.QuoteService, cmd *app.CommandService) *Handlers {
	return &Handlers{Q: q, Quotes: quotes, Cmd: cmd, Validate: newValidator()}
}

type problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(v chi.Router) {
		v.Get("/{resource}/packages", h.listPackages)
		v.Get("/{resource}/packages/{id}", h.getPackage)

		v.Group(func(q chi.Router) {
			if s.quoteLimit != nil {
				q.Use(s.quoteLimit)
			}
			q.Get("/{resource}/packages/{id}/quote", h.quote)
			q.Post("/quotes", h.quoteBatch)
		})

		v.Patch("/admin/{resource}/packages/{id}/status", h.setStatus)
	})
}

func selectLang(al string) string {
	s := strings.ToLower(al)
	if strings.HasPrefix(s, "fr") {
		return "fr"
	}
	if strings.HasPrefix(s, "es") {
		return "es"
	}
	return "en"
}

func requestLang(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	return selectLang(r.Header.Get("Accept-Language"))
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemFields(w, status, title, detail, nil)
}

func writeProblemFields(w http.ResponseWriter, status int, title, detail string, fields map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Errors: fields}
	if err := json.NewEncoder(w).Encode(p); err != nil {
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

// quoteParams renames calculator input fields to the names clients send.
var quoteParams = map[string]string{
	"adult_count": "adults",
	"child_count": "children",
	"start_date":  "start",
	"end_date":    "end",
}

func quoteFields(fields map[string][]string) map[string][]string {
	out := make(map[string][]string, len(fields))
	for k, msgs := range fields {
		if name, ok := quoteParams[k]; ok {
			k = name
		}
		out[k] = append(out[k], msgs...)
	}
	return out
}

// errorProblem maps service errors onto HTTP problems.
func errorProblem(err error) problem {
	if ve := pricing.IsValidationError(err); ve != nil {
		return problem{Status: http.StatusBadRequest, Title: "Invalid quote input", Detail: "one or more fields are invalid", Errors: quoteFields(ve.Fields())}
	}
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnsupportedResource):
		return problem{Status: http.StatusNotFound, Title: "Not Found", Detail: "package not found"}
	case errors.Is(err, domain.ErrNotApproved):
		return problem{Status: http.StatusConflict, Title: "Not Approved", Detail: "package is not approved for sale"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return problem{Status: http.StatusConflict, Title: "Invalid Transition", Detail: err.Error()}
	case errors.Is(err, pricing.ErrAmbiguousConstantPrice):
		return problem{Status: http.StatusConflict, Title: "Ambiguous Price", Detail: err.Error()}
	}
	log.Error().Err(err).Msg("request failed")
	return problem{Status: http.StatusInternalServerError, Title: "Internal Server Error"}
}

func writeError(w http.ResponseWriter, err error) {
	p := errorProblem(err)
	writeProblemFields(w, p.Status, p.Title, p.Detail, p.Errors)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// pathTarget reads {resource} and {id}.
func pathTarget(w http.ResponseWriter, r *http.Request) (domain.Resource, int64, bool) {
	res, err := domain.ParseResource(chi.URLParam(r, "resource"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Unknown Resource", "resource must be one of hotel, activity, car_rental, visa")
		return "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return "", 0, false
	}
	return res, id, true
}

func (h *Handlers) getPackage(w http.ResponseWriter, r *http.Request) {
	res, id, ok := pathTarget(w, r)
	if !ok {
		return
	}
	resp, err := h.Q.GetPackage(r.Context(), res, id, requestLang(r))
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Language", resp.Language)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getPackage body")
	}
}

func (h *Handlers) listPackages(w http.ResponseWriter, r *http.Request) {
	res, err := domain.ParseResource(chi.URLParam(r, "resource"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Unknown Resource", "resource must be one of hotel, activity, car_rental, visa")
		return
	}
	qs := r.URL.Query()
	q := domain.PackagesQuery{Resource: res, Lang: requestLang(r)}
	fields := map[string][]string{}

	if v := strings.TrimSpace(qs.Get("q")); v != "" {
		q.Q = &v
	}
	if v := qs.Get("status"); v != "" {
		st, err := domain.ParseStatus(v)
		if err != nil {
			fields["status"] = append(fields["status"], "must be one of pending, approved, rejected, suspended")
		} else {
			q.Status = &st
		}
	}
	if v := qs.Get("owner_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fields["owner_id"] = append(fields["owner_id"], "must be a number")
		} else {
			q.OwnerID = &n
		}
	}
	if v := qs.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 || l > 200 {
			fields["limit"] = append(fields["limit"], "must be an integer between 1 and 200")
		}
		q.Limit = l
	}
	if v := qs.Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			fields["page"] = append(fields["page"], "must be a positive integer")
		}
		q.Page = p
	}
	if len(fields) > 0 {
		writeProblemFields(w, http.StatusBadRequest, "Invalid Query", "one or more query parameters are invalid", fields)
		return
	}

	out, err := h.Q.ListPackages(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
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
		log.Error().Err(err).Msg("failed to write listPackages body")
	}
}

type quoteResponse struct {
	QuoteID         string             `json:"quote_id"`
	Available       bool               `json:"available"`
	Resource        domain.Resource    `json:"resource"`
	PackageID       int64              `json:"package_id"`
	PeriodID        *int64             `json:"period_id"`
	CalculatedPrice *domain.PriceQuote `json:"calculated_price"`
}

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	res, id, ok := pathTarget(w, r)
	if !ok {
		return
	}
	qs := r.URL.Query()
	fields := map[string][]string{}
	req := app.QuoteRequest{Resource: res, PackageID: id}
	req.Start = parseDate(qs.Get("start"), "start", fields)
	req.End = parseDate(qs.Get("end"), "end", fields)
	req.Guests.AdultCount = parseCount(qs.Get("adults"), "adults", fields)
	req.Guests.ChildCount = parseCount(qs.Get("children"), "children", fields)
	req.Guests.ChildAges = parseAges(qs.Get("child_ages"), fields)
	if len(fields) > 0 {
		writeProblemFields(w, http.StatusBadRequest, "Invalid Query", "one or more query parameters are invalid", fields)
		return
	}

	out, err := h.Quotes.Quote(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := quoteResponse{
		QuoteID:         uuid.NewString(),
		Available:       out.Available,
		Resource:        res,
		PackageID:       id,
		CalculatedPrice: out.Quote,
	}
	if out.Period != nil {
		resp.PeriodID = &out.Period.ID
	}
	w.Header().Set("Content-Language", h.Q.NormalizeLang(requestLang(r)))
	writeJSON(w, http.StatusOK, resp)
}

type quoteItem struct {
	Resource  string  `json:"resource" validate:"required,oneof=hotel activity car_rental visa"`
	PackageID int64   `json:"package_id" validate:"required,gt=0"`
	Start     *string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End       *string `json:"end" validate:"omitempty,datetime=2006-01-02"`
	Adults    int     `json:"adults" validate:"gte=0"`
	Children  int     `json:"children" validate:"gte=0"`
	ChildAges []int   `json:"child_ages" validate:"omitempty,dive,gte=0"`
}

type quoteBatchBody struct {
	Items []quoteItem `json:"items" validate:"required,min=1,max=50,dive"`
}

type batchItem struct {
	QuoteID        string             `json:"quote_id"`
	Available      bool               `json:"available"`
	Resource       string             `json:"resource"`
	PackageID      int64              `json:"package_id"`
	PeriodID       *int64             `json:"period_id"`
	PriceBreakdown *domain.PriceQuote `json:"price_breakdown"`
	Error          *problem           `json:"error,omitempty"`
}

func (h *Handlers) quoteBatch(w http.ResponseWriter, r *http.Request) {
	var body quoteBatchBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.Validate.Struct(body); err != nil {
		writeProblemFields(w, http.StatusBadRequest, "Invalid Body", "one or more fields are invalid", validationFields(err))
		return
	}

	reqs := make([]app.QuoteRequest, len(body.Items))
	for i, it := range body.Items {
		reqs[i] = app.QuoteRequest{
			Resource:  domain.Resource(it.Resource),
			PackageID: it.PackageID,
			Start:     mustDate(it.Start),
			End:       mustDate(it.End),
			Guests: domain.GuestComposition{
				AdultCount: it.Adults,
				ChildCount: it.Children,
				ChildAges:  it.ChildAges,
			},
		}
	}

	results, errs := h.Quotes.QuoteBatch(r.Context(), reqs)
	items := make([]batchItem, len(results))
	for i, res := range results {
		it := batchItem{
			QuoteID:        uuid.NewString(),
			Available:      res.Available,
			Resource:       body.Items[i].Resource,
			PackageID:      body.Items[i].PackageID,
			PriceBreakdown: res.Quote,
		}
		if res.Period != nil {
			it.PeriodID = &res.Period.ID
		}
		if errs[i] != nil {
			p := errorProblem(errs[i])
			p.Type = "about:blank"
			it.Error = &p
		}
		items[i] = it
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type statusBody struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected suspended"`
}

func (h *Handlers) setStatus(w http.ResponseWriter, r *http.Request) {
	res, id, ok := pathTarget(w, r)
	if !ok {
		return
	}
	var body statusBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.Validate.Struct(body); err != nil {
		writeProblemFields(w, http.StatusBadRequest, "Invalid Body", "one or more fields are invalid", validationFields(err))
		return
	}
	st, err := h.Cmd.SetPackageStatus(r.Context(), res, id, domain.Status(body.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "resource": res, "status": st})
}

// ---- query parsing ----

func parseDate(v, field string, fields map[string][]string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		fields[field] = append(fields[field], "must be a date formatted YYYY-MM-DD")
		return nil
	}
	return &t
}

// mustDate parses a date already checked by the validator.
func mustDate(v *string) *time.Time {
	if v == nil || *v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *v)
	if err != nil {
		return nil
	}
	return &t
}

func parseCount(v, field string, fields map[string][]string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fields[field] = append(fields[field], "must be an integer")
	}
	return n
}

func parseAges(v string, fields map[string][]string) []int {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			fields["child_ages"] = append(fields["child_ages"], "must be a comma separated list of integers")
			return nil
		}
		out = append(out, n)
	}
	return out
}

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/services"
)

func (req businessRequest) input() services.BusinessInput {
	return services.BusinessInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
		Country:     req.Country,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Logo:        req.Logo,
		Images:      req.Images,
		Tags:        req.Tags,
		IsActive:    req.IsActive,
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, verr *auth.ValidationError) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		verr.Add(name, auth.CodeInvalidValue, name+" must be a non-negative integer")
		return 0
	}
	return n
}

func (s *HTTPServer) listBusinesses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verr := &auth.ValidationError{}
	f := models.BusinessFilter{
		Category: q.Get("category"),
		City:     q.Get("city"),
		Query:    q.Get("q"),
		Limit:    queryInt(r, "limit", verr),
		Offset:   queryInt(r, "offset", verr),
	}
	if err := verr.Err(); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.svc.Businesses.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]businessDTO, 0, len(list))
	for _, b := range list {
		out = append(out, toBusinessDTO(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "businesses": out, "count": len(out)})
}

func (s *HTTPServer) getBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Businesses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "business": toBusinessDTO(b)})
}

func (s *HTTPServer) createBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	b, err := s.svc.Businesses.Create(r.Context(), accountFrom(r.Context()), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "business": toBusinessDTO(b)})
}

func (s *HTTPServer) updateBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	b, err := s.svc.Businesses.Update(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id"), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "business": toBusinessDTO(b)})
}

func (s *HTTPServer) deleteBusiness(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Businesses.Delete(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Business deleted"})
}

func (s *HTTPServer) imageUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	u, err := s.svc.Media.ImageUploadURL(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id"), req.ContentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"key":         u.Key,
		"uploadUrl":   u.URL,
		"contentType": u.ContentType,
		"expiresAt":   u.ExpiresAt,
	})
}

func (s *HTTPServer) listReviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Reviews.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]reviewDTO, 0, len(list))
	for _, rv := range list {
		out = append(out, toReviewDTO(rv))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "reviews": out})
}

func (s *HTTPServer) createReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	rv, err := s.svc.Reviews.Create(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id"), req.Rating, req.Comment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "review": toReviewDTO(rv)})
}

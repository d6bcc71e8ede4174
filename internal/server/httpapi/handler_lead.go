package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/localbizsite/localbiz/internal/server/services"
)

func (s *HTTPServer) createLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	l, err := s.svc.Leads.Create(r.Context(), services.LeadInput{
		BusinessID: req.BusinessID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
		Source:     req.Source,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "lead": toLeadDTO(l)})
}

func (s *HTTPServer) myLeads(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Leads.ListMine(r.Context(), accountFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]leadDTO, 0, len(list))
	for _, l := range list {
		out = append(out, toLeadDTO(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "leads": out})
}

func (s *HTTPServer) updateLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req leadStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	l, err := s.svc.Leads.UpdateStatus(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "lead": toLeadDTO(l)})
}

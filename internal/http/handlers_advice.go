package http

import (
	"errors"
	"net/http"

	"spendwise/internal/services"
)

type adviceRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if s.deps.Advice == nil || !s.deps.Advice.Enabled() {
		ServiceUnavailableError("advice is not configured").Write(w)
		return
	}
	var req adviceRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	adv, err := s.deps.Advice.Ask(r.Context(), userID(r), sanitizeInput(req.Question))
	if errors.Is(err, services.ErrAdviceUnavailable) {
		ServiceUnavailableError("advice is not configured").Write(w)
		return
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, adviceView{Answer: adv.Answer, Cached: adv.Cached, GeneratedAt: adv.GeneratedAt})
}

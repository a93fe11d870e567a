package httpadapter

import (
	"net/http"

	"tradepost/internal/domain"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type principalResponse struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toPrincipalResponse(p *domain.Principal) principalResponse {
	return principalResponse{Kind: string(p.Kind), ID: p.ID.String(), Name: p.Name, Email: p.Email}
}

func (s *Server) handleRegister(kind domain.PrincipalKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		var p *domain.Principal
		var err error
		if kind == domain.KindCompany {
			p, err = s.auth.RegisterCompany(r.Context(), req.Name, req.Email, req.Password)
		} else {
			p, err = s.auth.RegisterIndividual(r.Context(), req.Name, req.Email, req.Password)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPrincipalResponse(p))
	}
}

type loginRequest struct {
	Kind     string `json:"kind"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind := domain.PrincipalKind(req.Kind)
	if kind != domain.KindIndividual && kind != domain.KindCompany {
		writeError(w, domain.ErrValidation)
		return
	}
	token, p, err := s.auth.Login(r.Context(), kind, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"principal": toPrincipalResponse(p),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), tokenFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.auth.ChangePassword(r.Context(), tokenFrom(r), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

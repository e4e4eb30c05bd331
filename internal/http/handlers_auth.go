package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	in.Email = sanitizeInput(in.Email)

	sess, err := s.deps.Auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(sess).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in.Email = sanitizeInput(in.Email)

	sess, err := s.deps.Auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(sess).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, s.logger, core.Unauthenticated("missing bearer token", nil))
		return
	}
	if err := s.deps.Auth.Logout(r.Context(), claims); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Message("logged out").Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Auth.Me(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(u).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in auth.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if in.Name != nil {
		v := sanitizeInput(*in.Name)
		in.Name = &v
	}
	if in.Email != nil {
		v := sanitizeInput(*in.Email)
		in.Email = &v
	}

	u, err := s.deps.Auth.UpdateProfile(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(u).Write(w)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var in auth.PasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if err := s.deps.Auth.ChangePassword(r.Context(), userID(r), in); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Message("password updated").Write(w)
}

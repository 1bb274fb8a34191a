package api

import (
	"context"
	"net/http"
	"strings"

	"rollcall/pkg/types"
)

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxRole   contextKey = "role"
)

// authMiddleware verifies the Authorization bearer token and attaches the
// resolved identity to the request context.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.sendError(w, http.StatusUnauthorized, "Unauthorized, token missing or invalid")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		userID, role, err := s.verifier.Verify(token)
		if err != nil {
			s.sendError(w, http.StatusUnauthorized, "Unauthorized, token missing or invalid")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxRole, role)
		next(w, r.WithContext(ctx))
	}
}

// requireTeacher rejects requests whose authenticated role is not teacher.
func (s *Server) requireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if requestRole(r) != types.RoleTeacher {
			s.sendError(w, http.StatusForbidden, "Forbidden, teacher access required")
			return
		}
		next(w, r)
	}
}

// requireStudent rejects requests whose authenticated role is not student.
func (s *Server) requireStudent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if requestRole(r) != types.RoleStudent {
			s.sendError(w, http.StatusForbidden, "Forbidden, not a student")
			return
		}
		next(w, r)
	}
}

// jsonMiddleware sets the JSON content type on every API response.
func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func requestUserID(r *http.Request) string {
	userID, _ := r.Context().Value(ctxUserID).(string)
	return userID
}

func requestRole(r *http.Request) string {
	role, _ := r.Context().Value(ctxRole).(string)
	return role
}

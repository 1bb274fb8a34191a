package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"rollcall/internal/auth"
	"rollcall/internal/session"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// HealthChecker is the slice of the store the health endpoint needs.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server is the REST surface: signup/login, class management and the
// attendance-start operation. No business logic lives here beyond request
// decoding, validation and authorization; session-start preconditions
// belong to the session controller.
type Server struct {
	users      interfaces.UserStore
	classes    interfaces.ClassStore
	ledger     interfaces.AttendanceLedger
	verifier   interfaces.IdentityVerifier
	tokens     *auth.TokenService
	controller *session.Controller
	health     HealthChecker
	validate   *validator.Validate
	router     *http.ServeMux
}

// NewServer creates the API server and sets up routing.
func NewServer(
	users interfaces.UserStore,
	classes interfaces.ClassStore,
	ledger interfaces.AttendanceLedger,
	verifier interfaces.IdentityVerifier,
	tokens *auth.TokenService,
	controller *session.Controller,
	health HealthChecker,
) *Server {
	s := &Server{
		users:      users,
		classes:    classes,
		ledger:     ledger,
		verifier:   verifier,
		tokens:     tokens,
		controller: controller,
		health:     health,
		validate:   validator.New(),
		router:     http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /auth/signup", s.signup)
	s.router.HandleFunc("POST /auth/login", s.login)
	s.router.HandleFunc("GET /auth/me", s.authMiddleware(s.me))

	s.router.HandleFunc("POST /class", s.authMiddleware(s.createClass))
	s.router.HandleFunc("POST /class/{id}/add-student", s.authMiddleware(s.requireTeacher(s.addStudent)))
	s.router.HandleFunc("GET /class/{id}", s.authMiddleware(s.requireTeacher(s.getClass)))
	s.router.HandleFunc("GET /class/{id}/my-attendance", s.authMiddleware(s.requireStudent(s.myAttendance)))

	s.router.HandleFunc("GET /students", s.authMiddleware(s.requireTeacher(s.listStudents)))
	s.router.HandleFunc("GET /teachers", s.authMiddleware(s.requireTeacher(s.listTeachers)))

	s.router.HandleFunc("POST /attendance/start", s.authMiddleware(s.requireTeacher(s.startAttendance)))

	s.router.HandleFunc("GET /health", s.healthCheck)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.jsonMiddleware(s.router).ServeHTTP(w, r)
}

// Request payloads.
type signupRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"required,oneof=teacher student"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type classRequest struct {
	ClassName string `json:"className" validate:"required,min=1,max=200"`
}

type addStudentRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

type startAttendanceRequest struct {
	ClassID string `json:"classId" validate:"required"`
}

// publicUser is the serializable view of an account.
type publicUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func toPublicUser(u *types.User) publicUser {
	return publicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// decode parses and validates a JSON request body.
func (s *Server) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

// signup handles POST /auth/signup.
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := s.decode(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.internalError(w, "hash password", err)
		return
	}

	user := &types.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.CreateUser(r.Context(), user); err != nil {
		if err == interfaces.ErrDuplicateEmail {
			s.sendError(w, http.StatusBadRequest, "Email already exists")
			return
		}
		s.internalError(w, "create user", err)
		return
	}

	s.sendData(w, http.StatusCreated, toPublicUser(user))
}

// login handles POST /auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		s.sendError(w, http.StatusUnauthorized, "Invalid data")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.sendError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}

	s.sendData(w, http.StatusOK, map[string]string{"token": token})
}

// me handles GET /auth/me.
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUserByID(r.Context(), requestUserID(r))
	if err != nil {
		s.sendError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.sendData(w, http.StatusOK, toPublicUser(user))
}

// createClass handles POST /class. Only teachers may create classes.
func (s *Server) createClass(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if err := s.decode(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if requestRole(r) != types.RoleTeacher {
		s.sendError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	class := &types.Class{
		ID:         uuid.New().String(),
		Name:       req.ClassName,
		TeacherID:  requestUserID(r),
		StudentIDs: []string{},
	}
	if err := s.classes.CreateClass(r.Context(), class); err != nil {
		s.internalError(w, "create class", err)
		return
	}

	s.sendData(w, http.StatusOK, class)
}

// addStudent handles POST /class/{id}/add-student. Only the owning teacher
// may enroll students; the add itself is idempotent.
func (s *Server) addStudent(w http.ResponseWriter, r *http.Request) {
	var req addStudentRequest
	if err := s.decode(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}

	classID := r.PathValue("id")
	class, err := s.classes.GetClass(r.Context(), classID)
	if err != nil {
		if err == interfaces.ErrClassNotFound {
			s.sendError(w, http.StatusNotFound, "Class not found")
			return
		}
		s.internalError(w, "get class", err)
		return
	}
	if class.TeacherID != requestUserID(r) {
		s.sendError(w, http.StatusForbidden, "Forbidden, not class teacher")
		return
	}

	if err := s.classes.AddStudent(r.Context(), classID, req.StudentID); err != nil {
		s.internalError(w, "add student", err)
		return
	}

	updated, err := s.classes.GetClass(r.Context(), classID)
	if err != nil {
		s.internalError(w, "get class", err)
		return
	}
	s.sendData(w, http.StatusOK, updated)
}

// getClass handles GET /class/{id}, returning the class with enrolled
// student details.
func (s *Server) getClass(w http.ResponseWriter, r *http.Request) {
	class, err := s.classes.GetClass(r.Context(), r.PathValue("id"))
	if err != nil {
		if err == interfaces.ErrClassNotFound {
			s.sendError(w, http.StatusNotFound, "Class not found")
			return
		}
		s.internalError(w, "get class", err)
		return
	}

	students := make([]publicUser, 0, len(class.StudentIDs))
	for _, studentID := range class.StudentIDs {
		student, err := s.users.GetUserByID(r.Context(), studentID)
		if err != nil {
			continue
		}
		students = append(students, publicUser{ID: student.ID, Name: student.Name, Email: student.Email})
	}

	s.sendData(w, http.StatusOK, map[string]interface{}{
		"_id":       class.ID,
		"className": class.Name,
		"teacherId": class.TeacherID,
		"students":  students,
	})
}

// myAttendance handles GET /class/{id}/my-attendance for the
// authenticated student.
func (s *Server) myAttendance(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("id")
	studentID := requestUserID(r)

	enrolled, err := s.classes.IsEnrolled(r.Context(), classID, studentID)
	if err != nil {
		s.internalError(w, "enrollment check", err)
		return
	}
	if !enrolled {
		s.sendError(w, http.StatusNotFound, "Student not enrolled")
		return
	}

	record, err := s.ledger.FindRecord(r.Context(), classID, studentID)
	if err != nil {
		s.internalError(w, "find attendance", err)
		return
	}

	var status interface{}
	if record != nil {
		status = record.Status
	}
	s.sendData(w, http.StatusOK, map[string]interface{}{
		"classId": classID,
		"status":  status,
	})
}

// listStudents handles GET /students.
func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	s.listUsers(w, r, types.RoleStudent)
}

// listTeachers handles GET /teachers.
func (s *Server) listTeachers(w http.ResponseWriter, r *http.Request) {
	s.listUsers(w, r, types.RoleTeacher)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, role string) {
	users, err := s.users.ListUsersByRole(r.Context(), role)
	if err != nil {
		s.internalError(w, "list users", err)
		return
	}

	out := make([]publicUser, 0, len(users))
	for _, u := range users {
		out = append(out, publicUser{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	s.sendData(w, http.StatusOK, out)
}

// startAttendance handles POST /attendance/start, the HTTP face of the
// session controller.
func (s *Server) startAttendance(w http.ResponseWriter, r *http.Request) {
	var req startAttendanceRequest
	if err := s.decode(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}

	summary, err := s.controller.Start(r.Context(), requestUserID(r), requestRole(r), req.ClassID)
	if err != nil {
		switch err {
		case session.ErrClassNotFound:
			s.sendError(w, http.StatusNotFound, "Class not found")
		case session.ErrNotTeacher, session.ErrNotClassTeacher:
			s.sendError(w, http.StatusForbidden, "Forbidden, not class teacher")
		default:
			s.internalError(w, "start session", err)
		}
		return
	}

	s.sendData(w, http.StatusOK, summary)
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.health.HealthCheck(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "unhealthy",
			"database": err.Error(),
		})
		return
	}

	s.sendData(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// Response envelope helpers.

func (s *Server) sendData(w http.ResponseWriter, code int, data interface{}) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("Internal error (%s): %v", op, err)
	s.sendError(w, http.StatusInternalServerError, "Internal Server Error")
}

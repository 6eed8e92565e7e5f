package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quizgate/internal/app"
	"quizgate/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Handler exposes the quiz protocol over plain JSON endpoints. Request
// bodies are decoded into tagged DTOs and validated before the service
// sees them, so the core never observes malformed input.
type Handler struct {
	service  *app.AssessmentService
	validate *validator.Validate
}

func NewHandler(service *app.AssessmentService) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// Register mounts the REST routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quiz/validate-password", h.validatePassword)
	mux.HandleFunc("GET /api/quiz/all", h.listQuizzes)
	mux.HandleFunc("GET /api/quiz/{quizId}", h.getQuiz)
	mux.HandleFunc("POST /api/quiz/submit", h.submit)
	mux.HandleFunc("GET /api/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/leaderboard/user/{userName}", h.leaderboardByUser)
}

type validatePasswordRequest struct {
	QuizID   string `json:"quizId" validate:"required"`
	Password string `json:"password"`
}

type validatePasswordResponse struct {
	Granted bool   `json:"granted"`
	Message string `json:"message"`
}

type submitRequest struct {
	QuizID      string   `json:"quizId" validate:"required"`
	UserName    string   `json:"userName"`
	UserAnswers []string `json:"userAnswers" validate:"required"`
}

type submitResponse struct {
	Message string `json:"message"`
	Score   int    `json:"score"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) validatePassword(w http.ResponseWriter, r *http.Request) {
	var req validatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ValidateAccess(r.Context(), req.QuizID, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validatePasswordResponse{Granted: true, Message: "Password validated"})
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), r.PathValue("quizId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	sub, err := h.service.Submit(r.Context(), req.QuizID, req.UserName, req.UserAnswers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Message: "Quiz submitted successfully", Score: sub.Score})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": rows})
}

func (h *Handler) leaderboardByUser(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LeaderboardByUser(r.Context(), r.PathValue("userName"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// decode unmarshals and validates a request body, writing the 400
// itself when the body is malformed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrNoQuestions):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidAnswerSet),
		errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrSubmitInFlight),
		errors.Is(err, domain.ErrNotVerified):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

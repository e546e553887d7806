package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
)

// ErrorResponse is the JSON body of every failed HTTP request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func jsonError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// NewRouter mounts the health check, quiz previews and the session websocket.
func NewRouter(service *app.QuizService, auth *Authenticator) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	quizzes := NewQuizHandler(service)
	router.GET("/quizzes/:id", quizzes.Preview)

	ws := NewWSHandler(service, auth)
	router.GET("/ws", gin.WrapF(ws.ServeWS))
	return router
}

// QuizHandler serves read-only quiz information.
type QuizHandler struct {
	service *app.QuizService
}

func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

// Preview returns the summary shown before a quiz starts.
func (h *QuizHandler) Preview(c *gin.Context) {
	preview, err := h.service.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		jsonError(c, loadErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, preview)
}

func loadErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrQuizNotPublished):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrZeroTotalPoints):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

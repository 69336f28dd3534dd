// Package quizapitest runs an in-memory quiz service for tests.
package quizapitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/gin-gonic/gin"
)

const practiceProblems = 3

type quiz struct {
	id        string
	name      string
	limit     int
	prompt    string
	questions []string
	started   bool
	finished  bool
}

type attempt struct {
	details models.AttemptDetails
}

type practice struct {
	prompt   string
	problems int
	answered bool
	score    *int
}

type injectedFailure struct {
	status  int
	message string
	raw     string
}

// Server is a fake quiz service. All handlers share one mutex.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	quizzes  map[string]*quiz
	attempts map[string]*attempt
	practice map[string]*practice
	failures map[string]injectedFailure
	tokens   []string
	nextID   int

	// Authorize decides whether a bearer token is accepted. Defaults to any non-empty token.
	Authorize func(token string) bool
	// Score grades a submitted attempt. Defaults to the share of non-empty answers out of 100.
	Score func(questions, answers []string) int
	// ProfilePictureSHA256 is returned by GET /users/profile-picture.
	ProfilePictureSHA256 string
}

func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		quizzes:  make(map[string]*quiz),
		attempts: make(map[string]*attempt),
		practice: make(map[string]*practice),
		failures: make(map[string]injectedFailure),
		Authorize: func(token string) bool {
			return token != ""
		},
		Score:                defaultScore,
		ProfilePictureSHA256: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func defaultScore(questions, answers []string) int {
	if len(questions) == 0 {
		return 0
	}
	answered := 0
	for _, a := range answers {
		if strings.TrimSpace(a) != "" {
			answered++
		}
	}
	return answered * 100 / len(questions)
}

// Fail makes the next request to "METHOD path" return status with the structured error body.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = injectedFailure{status: status, message: message}
}

// FailRaw makes the next request to "METHOD path" return status with body as-is.
func (s *Server) FailRaw(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = injectedFailure{status: status, raw: body}
}

// Tokens returns every bearer token seen, in request order.
func (s *Server) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

// Questions returns the server-side question list of a quiz.
func (s *Server) Questions(quizID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.quizzes[quizID]; ok {
		return append([]string(nil), q.questions...)
	}
	return nil
}

// SeedQuiz adds a started quiz with the given questions and returns its id.
func (s *Server) SeedQuiz(name string, questions ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID("quiz")
	s.quizzes[id] = &quiz{id: id, name: name, limit: len(questions), questions: questions, started: true}
	return id
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func apiError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": status, "error": message})
}

func (s *Server) middleware(c *gin.Context) {
	s.mu.Lock()
	key := c.Request.Method + " " + c.Request.URL.Path
	failure, injected := s.failures[key]
	delete(s.failures, key)
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token != "" {
		s.tokens = append(s.tokens, token)
	}
	s.mu.Unlock()

	if injected {
		if failure.raw != "" {
			c.Data(failure.status, "text/plain", []byte(failure.raw))
			c.Abort()
			return
		}
		apiError(c, failure.status, failure.message)
		return
	}
	if !s.Authorize(token) {
		apiError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	c.Next()
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.middleware)

	quizs := r.Group("/quizs")
	{
		quizs.POST("", s.createQuiz)
		quizs.GET("/course/instructor", s.listQuizzes)
		quizs.GET("/course/student", s.listQuizzes)
		quizs.POST("/:id/next-question", s.nextQuestion)
		quizs.PUT("/:id/questions", s.editQuestions)
		quizs.POST("/:id/start", s.startQuiz)
		quizs.POST("/:id/finish", s.finishQuiz)
		quizs.POST("/:id/attempts", s.createAttempt)
	}

	attempts := r.Group("/quiz-attempts")
	{
		attempts.GET("/:id", s.getAttempt)
		attempts.POST("/:id/submit", s.submitAttempt)
	}

	r.GET("/users/weekly-summary", s.weeklySummary)
	r.GET("/users/profile-picture", s.profilePicture)

	practice := r.Group("/practice-quizs")
	{
		practice.POST("", s.startPractice)
		practice.GET("/:id", s.getPractice)
		practice.POST("/:id", s.answerPractice)
		practice.POST("/:id/continue", s.continuePractice)
	}
	return r
}

// ===== QUIZZES =====

func (s *Server) createQuiz(c *gin.Context) {
	var req struct {
		Options struct {
			Name          string `json:"name"`
			QuestionLimit int    `json:"questionLimit"`
			Prompt        string `json:"prompt"`
		} `json:"options"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Options.Name == "" || req.Options.Prompt == "" {
		apiError(c, http.StatusBadRequest, "invalid quiz options")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID("quiz")
	first := fmt.Sprintf("Question 1 about %s", req.Options.Prompt)
	s.quizzes[id] = &quiz{
		id:        id,
		name:      req.Options.Name,
		limit:     req.Options.QuestionLimit,
		prompt:    req.Options.Prompt,
		questions: []string{first},
	}
	c.JSON(http.StatusOK, gin.H{"quizId": id, "firstQuestion": first})
}

func (s *Server) listQuizzes(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.QuizSummary, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, models.QuizSummary{ID: q.id, Name: q.name, Started: q.started, Finished: q.finished})
	}
	c.JSON(http.StatusOK, gin.H{"quizs": out})
}

// lookupQuiz must be called with s.mu held.
func (s *Server) lookupQuiz(c *gin.Context) (*quiz, bool) {
	q, ok := s.quizzes[c.Param("id")]
	if !ok {
		apiError(c, http.StatusNotFound, "quiz not found")
	}
	return q, ok
}

func (s *Server) nextQuestion(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.lookupQuiz(c)
	if !ok {
		return
	}
	if q.finished {
		apiError(c, http.StatusBadRequest, "quiz has finished")
		return
	}
	if len(q.questions) >= q.limit {
		apiError(c, http.StatusBadRequest, "question limit reached")
		return
	}
	question := fmt.Sprintf("Question %d about %s", len(q.questions)+1, q.prompt)
	q.questions = append(q.questions, question)
	c.JSON(http.StatusOK, gin.H{"question": question})
}

func (s *Server) editQuestions(c *gin.Context) {
	var req struct {
		Questions []string `json:"questions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid questions")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.lookupQuiz(c)
	if !ok {
		return
	}
	q.questions = req.Questions
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) startQuiz(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.lookupQuiz(c)
	if !ok {
		return
	}
	if q.started {
		apiError(c, http.StatusConflict, "quiz already started")
		return
	}
	q.started = true
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) finishQuiz(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.lookupQuiz(c)
	if !ok {
		return
	}
	if !q.started || q.finished {
		apiError(c, http.StatusBadRequest, "quiz is not running")
		return
	}
	q.finished = true
	c.JSON(http.StatusOK, gin.H{})
}

// ===== ATTEMPTS =====

func (s *Server) createAttempt(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.lookupQuiz(c)
	if !ok {
		return
	}
	if !q.started || q.finished {
		apiError(c, http.StatusBadRequest, "quiz is not running")
		return
	}
	id := s.newID("attempt")
	questions := append([]string(nil), q.questions...)
	s.attempts[id] = &attempt{details: models.AttemptDetails{
		ID:        id,
		QuizID:    q.id,
		QuizName:  q.name,
		Questions: questions,
		Answers:   []string{},
	}}
	c.JSON(http.StatusOK, gin.H{"quizAttemptId": id, "quizName": q.name, "questions": questions})
}

func (s *Server) getAttempt(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[c.Param("id")]
	if !ok {
		apiError(c, http.StatusNotFound, "quiz attempt not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizAttempt": a.details})
}

func (s *Server) submitAttempt(c *gin.Context) {
	var req struct {
		Answers []string `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid answers")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[c.Param("id")]
	if !ok {
		apiError(c, http.StatusNotFound, "quiz attempt not found")
		return
	}
	if a.details.Score != nil {
		apiError(c, http.StatusConflict, "quiz attempt already submitted")
		return
	}
	score := s.Score(a.details.Questions, req.Answers)
	now := time.Now().UTC()
	a.details.Answers = req.Answers
	a.details.Score = &score
	a.details.SubmittedOn = &now
	c.JSON(http.StatusOK, gin.H{"score": score})
}

func (s *Server) weeklySummary(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := models.WeeklySummary{Attempts: []models.WeeklyAttempt{}}
	total := 0
	for _, a := range s.attempts {
		if a.details.Score == nil {
			continue
		}
		total += *a.details.Score
		summary.Attempts = append(summary.Attempts, models.WeeklyAttempt{
			QuizName:    a.details.QuizName,
			Score:       *a.details.Score,
			SubmittedOn: *a.details.SubmittedOn,
		})
	}
	if len(summary.Attempts) > 0 {
		summary.AverageScore = float64(total) / float64(len(summary.Attempts))
	}
	c.JSON(http.StatusOK, gin.H{"weeklySummary": summary})
}

func (s *Server) profilePicture(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"sha256": s.ProfilePictureSHA256})
}

// ===== PRACTICE =====

func (s *Server) startPractice(c *gin.Context) {
	prompt := c.Query("prompt")
	if prompt == "" {
		apiError(c, http.StatusBadRequest, "prompt is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID("practice")
	s.practice[id] = &practice{prompt: prompt, problems: 1}
	c.JSON(http.StatusOK, gin.H{"problem": practiceProblem(prompt, 1), "practiceQuizId": id})
}

func practiceProblem(prompt string, n int) string {
	return fmt.Sprintf("Practice problem %d: %s", n, prompt)
}

func (s *Server) lookupPractice(c *gin.Context) (*practice, bool) {
	p, ok := s.practice[c.Param("id")]
	if !ok {
		apiError(c, http.StatusNotFound, "practice quiz not found")
	}
	return p, ok
}

func (s *Server) getPractice(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lookupPractice(c)
	if !ok {
		return
	}
	if p.score != nil {
		c.JSON(http.StatusOK, gin.H{"score": *p.score})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("problem %d of %d in progress", p.problems, practiceProblems)})
}

func (s *Server) answerPractice(c *gin.Context) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid answer")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lookupPractice(c)
	if !ok {
		return
	}
	if p.score != nil {
		apiError(c, http.StatusBadRequest, "practice quiz has finished")
		return
	}
	p.answered = true
	c.JSON(http.StatusOK, gin.H{"feedback": "Feedback on: " + req.Answer})
}

func (s *Server) continuePractice(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lookupPractice(c)
	if !ok {
		return
	}
	if p.score != nil || p.problems >= practiceProblems {
		if p.score == nil {
			score := 100
			p.score = &score
		}
		c.JSON(http.StatusOK, gin.H{"score": *p.score})
		return
	}
	p.problems++
	p.answered = false
	c.JSON(http.StatusOK, gin.H{"problem": practiceProblem(p.prompt, p.problems)})
}

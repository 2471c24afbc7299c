package interfaces

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-pipeline/domain"
	"ats-pipeline/usecase"
)

type HTTPHandler struct {
	gate       *usecase.DedupGate
	taskStatus domain.TaskStatusStore
	candidates *usecase.CandidateService
	vectorizer *usecase.Vectorizer
	jobs       domain.JobRepository
	apps       domain.ApplicationRepository
	scorer     *usecase.Scorer
	search     *usecase.SearchService
	dispatcher *usecase.Dispatcher
	log        *zap.Logger
}

func NewHTTPHandler(
	router *gin.Engine,
	gate *usecase.DedupGate,
	taskStatus domain.TaskStatusStore,
	candidates *usecase.CandidateService,
	vectorizer *usecase.Vectorizer,
	jobs domain.JobRepository,
	apps domain.ApplicationRepository,
	scorer *usecase.Scorer,
	search *usecase.SearchService,
	dispatcher *usecase.Dispatcher,
	logger *zap.Logger,
) {
	h := &HTTPHandler{
		gate:       gate,
		taskStatus: taskStatus,
		candidates: candidates,
		vectorizer: vectorizer,
		jobs:       jobs,
		apps:       apps,
		scorer:     scorer,
		search:     search,
		dispatcher: dispatcher,
		log:        logger,
	}

	api := router.Group("/api")
	api.POST("/resumes", h.UploadResume)
	api.GET("/tasks/:id", h.GetTaskStatus)

	api.GET("/candidates/:id", h.GetCandidate)
	api.PUT("/candidates/:id", h.UpdateCandidate)
	api.DELETE("/candidates/:id", h.DeleteCandidate)

	api.POST("/jobs", h.CreateJob)
	api.GET("/jobs/:id", h.GetJob)

	api.POST("/applications", h.CreateApplication)
	api.GET("/applications/:id", h.GetApplication)
	api.POST("/applications/:id/score", h.RecomputeScore)

	api.POST("/search/semantic", h.SemanticSearch)
}

// UploadResume feeds the dedup gate. A duplicate upload is a success with
// duplicated=true, never an error.
func (h *HTTPHandler) UploadResume(c *gin.Context) {
	ownerID, err := strconv.ParseInt(c.PostForm("owner_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}

	result, err := h.gate.Admit(c.Request.Context(), usecase.AdmitInput{
		Data:         data,
		DeclaredType: header.Header.Get("Content-Type"),
		OwnerID:      ownerID,
	})
	if err != nil {
		h.log.Error("upload admission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to admit upload"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *HTTPHandler) GetTaskStatus(c *gin.Context) {
	rec, err := h.taskStatus.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task status"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *HTTPHandler) GetCandidate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cand, err := h.candidates.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cand)
}

// UpdateCandidate applies a manual edit and re-vectorizes in the
// background; the edit response never waits on the embedding call.
func (h *HTTPHandler) UpdateCandidate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in usecase.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cand, err := h.candidates.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}

	updated := *cand
	h.dispatcher.Submit("revectorize", func(ctx context.Context) {
		h.vectorizer.Vectorize(ctx, &updated)
	})

	c.JSON(http.StatusOK, cand)
}

func (h *HTTPHandler) DeleteCandidate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.candidates.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

type createJobRequest struct {
	Title             string   `json:"title" binding:"required"`
	Description       string   `json:"description" binding:"required"`
	RequiredSkills    []string `json:"requiredSkills"`
	MinYears          *int     `json:"minYears"`
	MaxYears          *int     `json:"maxYears"`
	RequiredEducation string   `json:"requiredEducation"`
}

func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := &domain.Job{
		Title:             req.Title,
		Description:       req.Description,
		RequiredSkills:    domain.StringList(req.RequiredSkills),
		MinYears:          req.MinYears,
		MaxYears:          req.MaxYears,
		RequiredEducation: domain.NormalizeEducation(req.RequiredEducation),
	}
	if err := h.jobs.Create(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *HTTPHandler) GetJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	job, err := h.jobs.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type createApplicationRequest struct {
	JobID       int64 `json:"jobId" binding:"required"`
	CandidateID int64 `json:"candidateId" binding:"required"`
}

// CreateApplication persists the application and triggers scoring
// fire-and-forget; the response returns before the score exists.
func (h *HTTPHandler) CreateApplication(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.jobs.FindByID(c.Request.Context(), req.JobID); err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.candidates.Get(c.Request.Context(), req.CandidateID); err != nil {
		respondError(c, err)
		return
	}

	app := &domain.JobApplication{JobID: req.JobID, CandidateID: req.CandidateID}
	if err := h.apps.Create(c.Request.Context(), app); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create application"})
		return
	}

	appID := app.ID
	h.dispatcher.Submit("score", func(ctx context.Context) {
		if _, err := h.scorer.ComputeForApplication(ctx, appID); err != nil {
			h.log.Error("background scoring failed",
				zap.Int64("application_id", appID), zap.Error(err))
		}
	})

	c.JSON(http.StatusCreated, app)
}

func (h *HTTPHandler) GetApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	app, err := h.apps.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// RecomputeScore runs the same computation as the async trigger, but
// synchronously, and returns the full result.
func (h *HTTPHandler) RecomputeScore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.scorer.ComputeForApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *HTTPHandler) SemanticSearch(c *gin.Context) {
	var req usecase.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.search.Search(c.Request.Context(), req)
	if err != nil {
		h.log.Error("semantic search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

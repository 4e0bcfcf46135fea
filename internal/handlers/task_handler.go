package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/models"
	"gigmarket/internal/services"
)

type TaskHandler struct {
	tasks services.TaskService
	apps  services.ApplicationService
}

func NewTaskHandler(tasks services.TaskService, apps services.ApplicationService) *TaskHandler {
	return &TaskHandler{tasks: tasks, apps: apps}
}

// @Summary      Post a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        task  body      object  true  "Task fields"
// @Success      201   {object}  map[string]string
// @Security     BearerAuth
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Place       string  `json:"place"`
		Day         string  `json:"day"`
		Time        string  `json:"time"`
		Type        string  `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Place:       req.Place,
		Day:         req.Day,
		Time:        req.Time,
		Type:        req.Type,
	}
	created, err := h.tasks.Create(ctx, caller, task)
	if err != nil {
		respondError(c, "task.create", err)
		return
	}
	log.Printf("[task][create][ok] id=%s creator=%s price=%.2f", created.ID, caller.UID, created.Price)
	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully"})
}

// @Summary      List all tasks
// @Tags         Tasks
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	tasks, err := h.tasks.ListAll(ctx)
	if err != nil {
		respondError(c, "task.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// @Summary      List tasks created by a user
// @Tags         Tasks
// @Produce      json
// @Param        userId  path      string  true  "Creator id"
// @Success      200     {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /tasks/user/{userId} [get]
func (h *TaskHandler) ListByUser(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	tasks, err := h.tasks.ListByCreator(ctx, c.Param("userId"))
	if err != nil {
		respondError(c, "task.listByUser", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// @Summary      Bid on a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200     {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /tasks/{taskId}/apply [post]
func (h *TaskHandler) Apply(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		BidPrice float64 `json:"bid_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bid price is required"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.apps.Submit(ctx, caller, c.Param("taskId"), req.BidPrice); err != nil {
		respondError(c, "task.apply", err)
		return
	}
	log.Printf("[task][apply][ok] task=%s worker=%s bid=%.2f", c.Param("taskId"), caller.UID, req.BidPrice)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Application submitted"})
}

// @Summary      List a task's applications
// @Tags         Tasks
// @Produce      json
// @Param        taskId  path   string  true  "Task id"
// @Success      200     {array}  models.Application
// @Security     BearerAuth
// @Router       /tasks/{taskId}/applications [get]
func (h *TaskHandler) Applications(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	apps, err := h.apps.ListByTask(ctx, c.Param("taskId"))
	if err != nil {
		respondError(c, "task.applications", err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}
	c.JSON(http.StatusOK, apps)
}

// @Summary      Assign a worker
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200     {object}  map[string]string
// @Security     BearerAuth
// @Router       /tasks/{taskId}/assign [patch]
func (h *TaskHandler) Assign(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.tasks.Assign(ctx, caller, c.Param("taskId"), req.UserID); err != nil {
		respondError(c, "task.assign", err)
		return
	}
	log.Printf("[task][assign][ok] task=%s worker=%s by=%s", c.Param("taskId"), req.UserID, caller.UID)
	c.JSON(http.StatusOK, gin.H{"message": "Worker assigned successfully"})
}

// @Summary      Delete a task
// @Tags         Tasks
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200     {object}  map[string]string
// @Security     BearerAuth
// @Router       /tasks/{taskId} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.tasks.Delete(ctx, caller, c.Param("taskId")); err != nil {
		respondError(c, "task.delete", err)
		return
	}
	log.Printf("[task][delete][ok] task=%s by=%s", c.Param("taskId"), caller.UID)
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// @Summary      List a worker's bids
// @Tags         Tasks
// @Produce      json
// @Param        userId  path    string  true  "Worker id"
// @Success      200     {array}  models.Bid
// @Security     BearerAuth
// @Router       /tasks/bids/{userId} [get]
func (h *TaskHandler) Bids(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	bids, err := h.apps.ListByWorker(ctx, c.Param("userId"))
	if err != nil {
		respondError(c, "task.bids", err)
		return
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	c.JSON(http.StatusOK, bids)
}

// @Summary      Mark an assigned task done
// @Tags         Tasks
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200     {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /tasks/{taskId}/complete [patch]
func (h *TaskHandler) Complete(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.tasks.Complete(ctx, caller, c.Param("taskId")); err != nil {
		respondError(c, "task.complete", err)
		return
	}
	log.Printf("[task][complete][ok] task=%s by=%s", c.Param("taskId"), caller.UID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task marked as done"})
}

// @Summary      Task detail with applications and caller flags
// @Tags         Tasks
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200     {object}  services.TaskDetails
// @Security     BearerAuth
// @Router       /tasks/{taskId}/details [get]
func (h *TaskHandler) Details(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	details, err := h.tasks.Details(ctx, caller, c.Param("taskId"))
	if err != nil {
		respondError(c, "task.details", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// @Summary      Approve a done task
// @Tags         Tasks
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200 {object}  map[string]string
// @Security     BearerAuth
// @Router       /tasks/{taskId}/approve [patch]
func (h *TaskHandler) Approve(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.tasks.Approve(ctx, caller, c.Param("taskId")); err != nil {
		respondError(c, "task.approve", err)
		return
	}
	log.Printf("[task][approve][ok] task=%s by=%s", c.Param("taskId"), caller.UID)
	c.JSON(http.StatusOK, gin.H{"message": "Task confirmed as completed"})
}

// @Summary      Cancel a task
// @Tags         Tasks
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200 {object}  map[string]string
// @Security     BearerAuth
// @Router       /tasks/{taskId}/cancel [patch]
func (h *TaskHandler) Cancel(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.tasks.Cancel(ctx, caller, c.Param("taskId")); err != nil {
		respondError(c, "task.cancel", err)
		return
	}
	log.Printf("[task][cancel][ok] task=%s by=%s", c.Param("taskId"), caller.UID)
	c.JSON(http.StatusOK, gin.H{"message": "Task canceled"})
}

// @Summary      Reopen an assigned task
// @Tags         Tasks
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200     {object}  map[string]string
// @Security     BearerAuth
// @Router       /tasks/{taskId}/reopen [patch]
func (h *TaskHandler) Reopen(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.tasks.Reopen(ctx, caller, c.Param("taskId")); err != nil {
		respondError(c, "task.reopen", err)
		return
	}
	log.Printf("[task][reopen][ok] task=%s by=%s", c.Param("taskId"), caller.UID)
	c.JSON(http.StatusOK, gin.H{"message": "Task reopened successfully"})
}

// @Summary      Withdraw the assignment
// @Tags         Tasks
// @Produce      json
// @Param        taskId  path      string  true  "Task id"
// @Success      200     {object}  map[string]string
// @Security     BearerAuth
// @Router       /tasks/{taskId}/unassign [patch]
func (h *TaskHandler) Unassign(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.tasks.Unassign(ctx, caller, c.Param("taskId")); err != nil {
		respondError(c, "task.unassign", err)
		return
	}
	log.Printf("[task][unassign][ok] task=%s by=%s", c.Param("taskId"), caller.UID)
	c.JSON(http.StatusOK, gin.H{"message": "Assignment cancelled successfully"})
}

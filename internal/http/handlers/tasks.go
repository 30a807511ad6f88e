package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"task_manager/internal/domain"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

type CreateTaskRequest struct {
	Title  string         `json:"title"`
	Status *domain.Status `json:"status"`
}

// UpdateTaskRequest distinguishes an omitted field (nil) from an explicit value.
type UpdateTaskRequest struct {
	Title  *string        `json:"title"`
	Status *domain.Status `json:"status"`
}

type TaskListResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Data    []*domain.Task `json:"data"`
}

// taskID parses the :id path parameter. Anything unparsable cannot name a task.
func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondFail(c, http.StatusNotFound, "Task not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListTasks(c *gin.Context) {
	userID, _ := getUserID(c)

	filter := domain.TaskFilter{
		Status: domain.Status(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search")),
	}
	tasks, err := h.Tasks.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.respondError(c, err, "fetching tasks")
		return
	}

	c.JSON(http.StatusOK, TaskListResponse{Success: true, Count: len(tasks), Data: tasks})
}

func (h *Handler) TaskStats(c *gin.Context) {
	userID, _ := getUserID(c)

	stats, err := h.Tasks.Stats(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "fetching stats")
		return
	}
	respondOK(c, http.StatusOK, "", stats)
}

func (h *Handler) GetTask(c *gin.Context) {
	userID, _ := getUserID(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.Tasks.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err, "fetching task")
		return
	}
	respondOK(c, http.StatusOK, "", task)
}

func (h *Handler) CreateTask(c *gin.Context) {
	userID, _ := getUserID(c)

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.Tasks.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		h.respondError(c, err, "creating task")
		return
	}
	respondOK(c, http.StatusCreated, "Task created successfully", task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	userID, _ := getUserID(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.Tasks.Update(c.Request.Context(), userID, id, domain.TaskPatch{
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		h.respondError(c, err, "updating task")
		return
	}
	respondOK(c, http.StatusOK, "Task updated successfully", task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	userID, _ := getUserID(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.Tasks.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err, "deleting task")
		return
	}
	respondOK(c, http.StatusOK, "Task deleted successfully", nil)
}

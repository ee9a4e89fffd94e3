package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"taskhub/internal/services"
)

type TaskHandler struct {
	service services.TaskService
}

func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID := currentUser(c)
	log.Debugf("[task][create] call by userID=%s", userID)

	var req services.CreateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[task][create]", err)
		return
	}

	task, err := h.service.Create(c.Request.Context(), req, userID)
	if err != nil {
		writeError(c, "[task][create]", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID := currentUser(c)
	id := c.Param("id")

	task, err := h.service.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, "[task][getByID]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /tasks?status=&priority=
func (h *TaskHandler) List(c *gin.Context) {
	userID := currentUser(c)
	log.Debugf("[task][list] call by userID=%s q=%v", userID, c.Request.URL.RawQuery)

	filter, err := services.ParseTaskFilter(c.Query("status"), c.Query("priority"))
	if err != nil {
		writeError(c, "[task][list]", err)
		return
	}
	tasks, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		writeError(c, "[task][list]", err)
		return
	}
	log.Debugf("[task][list][ok] count=%d", len(tasks))
	c.JSON(http.StatusOK, tasks)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	userID := currentUser(c)
	id := c.Param("id")
	log.Debugf("[task][update] call by userID=%s id=%s", userID, id)

	var req services.UpdateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[task][update]", err)
		return
	}

	task, err := h.service.Update(c.Request.Context(), id, req, userID)
	if err != nil {
		writeError(c, "[task][update]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	userID := currentUser(c)
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		writeError(c, "[task][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

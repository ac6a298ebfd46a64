package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/helloworld/todo-service/internal/todo"
	"github.com/helloworld/todo-service/internal/todo/repository"
	"github.com/helloworld/todo-service/internal/todo/service"
	"github.com/helloworld/todo-service/pkg/logger"
)

const (
	msgNotFound   = "Todo not found"
	msgDeleted    = "Todo deleted successfully"
	msgIDMismatch = "Todo id in body does not match path"
	msgInternal   = "Internal Server Error"
)

// todoRequest is the body accepted by create and update. Content must be
// present but may be empty; id is optional.
type todoRequest struct {
	ID      *int64  `json:"id"`
	Content *string `json:"content" binding:"required"`
}

func RegisterTodoRoutes(r gin.IRouter, svc service.Service) {
	r.POST("/todos/", func(c *gin.Context) {
		var req todoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		t := &todo.Todo{Content: *req.Content}
		if req.ID != nil {
			t.ID = *req.ID
		}
		created, err := svc.Create(c.Request.Context(), t)
		if err != nil {
			logger.Errorf("create todo: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": msgInternal})
			return
		}
		c.JSON(http.StatusOK, created)
	})

	r.GET("/todos/", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			logger.Errorf("list todos: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": msgInternal})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.PUT("/todos/:todo_id", func(c *gin.Context) {
		id, ok := todoID(c)
		if !ok {
			return
		}
		var req todoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		updated, err := svc.Update(c.Request.Context(), id, req.ID, todo.Update{Content: *req.Content})
		if err != nil {
			writeError(c, "update", id, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	r.DELETE("/todos/:todo_id", func(c *gin.Context) {
		id, ok := todoID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, "delete", id, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": msgDeleted})
	})
}

func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("todo_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "todo_id must be an integer"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors for update and delete. A failed commit
// reports the driver's message; anything else is opaque.
func writeError(c *gin.Context, op string, id int64, err error) {
	var ce *repository.CommitError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": msgNotFound})
	case errors.Is(err, service.ErrIDMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgIDMismatch})
	case errors.As(err, &ce):
		logger.Warnf("%s todo %d: commit failed, rolled back: %v", op, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	default:
		logger.Errorf("%s todo %d: %v", op, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": msgInternal})
	}
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一返回结构
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func write(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Body{Code: status, Message: message, Data: data})
}

func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, "success", data)
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, message, data)
}

func BadRequest(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, message, nil)
}

func NotFound(c *gin.Context, message string) {
	write(c, http.StatusNotFound, message, nil)
}

func InternalError(c *gin.Context, message string) {
	write(c, http.StatusInternalServerError, message, nil)
}

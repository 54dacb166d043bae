package httptransport

import "github.com/gin-gonic/gin"

// ErrorBody is the error shape for every endpoint.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// RespondDetail writes {"detail": detail} with the given status.
func RespondDetail(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, ErrorBody{Detail: detail})
}

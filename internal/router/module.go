package router

import "github.com/gin-gonic/gin"

// Module is one mountable feature area of the API. Register receives the
// shared /api group and attaches the module's routes beneath it.
type Module interface {
	Register(rg *gin.RouterGroup)
}

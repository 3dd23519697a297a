package api

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

const swaggerPath = "/swagger/admin.swagger.json"

//go:embed swagger/admin.swagger.json
var swaggerDoc []byte

func registerDocs(router gin.IRouter) {
	router.GET(swaggerPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", swaggerDoc)
	})
	router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerPath))))
}

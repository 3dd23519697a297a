package api

import (
	"net/http"

	"github.com/Domenick1991/bookingadmin/internal/dashboard"
	"github.com/Domenick1991/bookingadmin/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type RouterDeps struct {
	Auth     auth.AuthUseCase
	Views    *dashboard.Registry
	Cookie   CookieSettings
	Docs     bool
	Gatherer prometheus.Gatherer
	Log      *logrus.Entry
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(deps.Log), Metrics())
	router.SetHTMLTemplate(loadTemplates())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if deps.Docs {
		registerDocs(router)
	}

	guard := SessionGuard(deps.Auth, deps.Cookie, deps.Views, deps.Log)
	NewAuthHandler(deps.Auth, deps.Views, deps.Cookie, deps.Log).Register(router, guard)
	NewDashboardHandler(deps.Views).Register(router, guard)

	return router
}

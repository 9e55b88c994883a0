package server

import (
	"net/http"

	"github.com/balazsgrill/actiongate/internal/validate"
	"github.com/gin-gonic/gin"
)

func (s *Server) routes(r *gin.Engine) {
	r.GET("/api-key/:key", s.issueToken)
	r.GET("/health", s.healthStatus)

	api := r.Group("/", authRequired(s.dispatcher))
	{
		api.GET("/services", s.listServices)
		api.GET("/actions", s.listActions)
		api.GET("/plugin/form", s.pluginForm)
		api.GET("/plugin/registry", s.pluginRegistry)
		api.POST("/plugin/validate", s.validatePlugin)
		api.POST("/plugin/run", s.runPlugin)
		api.POST("/plugin/:module/:fn", s.callHelper)
		api.GET("/service/resource", s.serviceResource)
		api.POST("/service/resource/validate", s.validateResource)
	}
}

// query returns the named query parameters, or a field error naming every
// missing one.
func query(c *gin.Context, names ...string) ([]string, bool) {
	values := make([]string, len(names))
	var missing *validate.Error
	for i, name := range names {
		v, ok := c.GetQuery(name)
		if !ok {
			if missing == nil {
				missing = validate.Field(name, "field required")
			} else {
				missing.Fields[name] = []string{"field required"}
			}
			continue
		}
		values[i] = v
	}
	if missing != nil {
		abortWithError(c, missing)
		return nil, false
	}
	return values, true
}

func (s *Server) issueToken(c *gin.Context) {
	tok, err := s.dispatcher.Issue(c.Param("key"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: tok})
}

func (s *Server) healthStatus(c *gin.Context) {
	if s.health == nil || s.health.IsConnected() {
		c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
		return
	}
	c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Detail: "MQTT not connected"})
}

func (s *Server) listServices(c *gin.Context) {
	c.JSON(http.StatusOK, s.dispatcher.Services())
}

func (s *Server) listActions(c *gin.Context) {
	q, ok := query(c, "service_id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.dispatcher.Actions(q[0]))
}

func (s *Server) pluginForm(c *gin.Context) {
	q, ok := query(c, "service_id", "action_id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.dispatcher.Form(q[0], q[1]))
}

func (s *Server) pluginRegistry(c *gin.Context) {
	q, ok := query(c, "service_id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.dispatcher.PluginRegistry(q[0]))
}

func (s *Server) serviceResource(c *gin.Context) {
	q, ok := query(c, "service_id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.dispatcher.Resource(q[0]))
}

func (s *Server) validateResource(c *gin.Context) {
	q, ok := query(c, "service_id")
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		abortWithError(c, err)
		return
	}
	valid, err := s.dispatcher.ValidateResource(c.Request.Context(), q[0], body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, valid)
}

func (s *Server) validatePlugin(c *gin.Context) {
	q, ok := query(c, "service_id", "action_id")
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		abortWithError(c, err)
		return
	}
	out, err := s.dispatcher.Validate(c.Request.Context(), q[0], q[1], body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) runPlugin(c *gin.Context) {
	q, ok := query(c, "service_id", "action_id")
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		abortWithError(c, err)
		return
	}
	out, err := s.dispatcher.Run(c.Request.Context(), q[0], q[1], body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if out == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) callHelper(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		abortWithError(c, err)
		return
	}
	out, err := s.dispatcher.Call(c.Request.Context(), c.Param("module"), c.Param("fn"), body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/balazsgrill/actiongate/internal/ctxlog"
	"github.com/balazsgrill/actiongate/internal/dispatch"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const ProcessTimeHeader = "X-Process-Time"

// timedWriter stamps the elapsed time on the response right before the
// header is sent.
type timedWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timedWriter) stamp() {
	if w.stamped || w.ResponseWriter.Written() {
		return
	}
	w.stamped = true
	elapsed := time.Since(w.start).Seconds()
	w.Header().Set(ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', -1, 64))
}

func (w *timedWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timedWriter) Write(data []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(data)
}

func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

func processTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &timedWriter{ResponseWriter: c.Writer, start: time.Now()}
		c.Next()
	}
}

// allowAll lets any origin in with credentials, echoing the origin back. The
// headers a preflight asks for are granted as requested.
func allowAll() gin.HandlerFunc {
	handler := cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			if requested := c.GetHeader("Access-Control-Request-Headers"); requested != "" {
				c.Header("Access-Control-Allow-Headers", requested)
			}
		}
		handler(c)
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		ctxlog.FromContext(c.Request.Context()).Error("endpoint panic", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ServerErrorResponse{Details: fmt.Sprint(recovered)})
	})
}

// executionScope gives every request its execution id and scoped logger.
func executionScope(d *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(d.Begin(c.Request.Context()))
		c.Next()
	}
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func authRequired(d *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := d.Authenticate(c.Request.Context(), c.GetHeader("Authorization")); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

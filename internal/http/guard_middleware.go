package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach-console/internal/guard"
)

// RequireSession aplica el guard de rutas antes de renderizar una vista protegida.
func RequireSession(g *guard.Guard, adminOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if g == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "guard not configured"})
			c.Abort()
			return
		}

		d := g.Evaluate(c.Request.Context(), guard.Request{Path: c.Request.URL.Path, AdminOnly: adminOnly})
		switch d.Outcome {
		case guard.OutcomeRender:
			c.Next()
		case guard.OutcomeLoading:
			// La sesión persistida aún no está hidratada; el cliente reintenta.
			c.Header("Retry-After", "1")
			c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
			c.Abort()
		case guard.OutcomeRedirect:
			c.Header("Location", d.Target)
			c.JSON(http.StatusSeeOther, gin.H{"redirect": d.Target, "state": d.Notice})
			c.Abort()
		}
	}
}

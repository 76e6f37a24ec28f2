package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients. Origin checks reuse the same
// allowlist the CORS middleware is configured with. Repeated ?entity=
// parameters narrow the feed (e.g. /ws?entity=reward).
func HandleWebSocket(hub *Hub, allowedOrigins []string, logger *slog.Logger) http.HandlerFunc {
	patterns := originPatterns(allowedOrigins)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: patterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, r.URL.Query()["entity"])
		client.Run(r.Context())
	}
}

// originPatterns strips scheme prefixes; coder/websocket matches host
// patterns, not full origins.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		patterns = append(patterns, o)
	}
	return patterns
}

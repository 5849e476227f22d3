package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	"github.com/dgnsrekt/matchcast/api"
	"github.com/dgnsrekt/matchcast/internal/api/generated"
)

// Routes collects the handlers mounted by NewRouter. Nil handlers are not
// mounted.
type Routes struct {
	Server  *Server
	Monitor http.Handler // websocket, GET /live/monitor
	Events  http.Handler // SSE, GET /live/events
	Metrics http.Handler
	WWWDir  string
}

type requestKey struct{}

var errNoRequest = errors.New("request missing from context")

func NewRouter(routes Routes, logger *zap.Logger) (http.Handler, error) {
	// Load OpenAPI spec for validation
	swagger, err := generated.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("loading openapi spec: %w", err)
	}
	swagger.Servers = nil // Allow any host

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(logger))

	// Live routes hold the connection open; no compression or timeouts.
	if routes.Monitor != nil {
		r.Method(http.MethodGet, "/live/monitor", routes.Monitor)
	}
	if routes.Events != nil {
		r.Method(http.MethodGet, "/live/events", routes.Events)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		// Non-validated routes
		r.Get("/openapi.yaml", openapiHandler)
		r.Get("/docs", swaggerUIHandler)
		if routes.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", routes.Metrics)
		}

		// API routes with OpenAPI validation
		if routes.Server != nil {
			r.Group(func(apiRouter chi.Router) {
				apiRouter.Use(oapimiddleware.OapiRequestValidator(swagger))

				strictHandler := generated.NewStrictHandler(routes.Server, []generated.StrictMiddlewareFunc{withRequest})
				generated.HandlerFromMux(strictHandler, apiRouter)
			})
		}

		if routes.WWWDir != "" {
			r.Handle("/*", http.FileServer(http.Dir(routes.WWWDir)))
		}
	})

	return r, nil
}

// withRequest hands the HTTP request to strict handlers, which otherwise
// only see a context. /negotiate builds its URLs from the request host.
func withRequest(f generated.StrictHandlerFunc, operationID string) generated.StrictHandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request, request interface{}) (interface{}, error) {
		return f(context.WithValue(ctx, requestKey{}, r), w, r, request)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(api.OpenAPISpec)
}

func swaggerUIHandler(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>matchcast</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.10.3/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.3/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/openapi.yaml",
                dom_id: '#swagger-ui',
            });
        };
    </script>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}

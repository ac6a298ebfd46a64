package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the API documentation endpoints.
// - GET /docs          -> a small HTML page that loads the OpenAPI JSON
// - GET /openapi.json  -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(openAPIJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Hello World API with DB - Swagger UI</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const openAPIJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "Hello World API with DB", "version": "0.0.1" },
  "servers": [ { "url": "http://localhost:8000", "description": "Development Server" } ],
  "components": {
    "schemas": {
      "Todo": { "type": "object", "required": ["content"], "properties": { "id": {"type":"integer"}, "content": {"type":"string"} } },
      "Error": { "type": "object", "properties": { "detail": {"type":"string"} } }
    }
  },
  "paths": {
    "/": { "get": { "summary": "Read Root", "responses": { "200": { "description": "{\"Hello\": \"World\"}" } } } },
    "/todos/": {
      "get": { "summary": "Read Todos", "responses": { "200": { "description": "all todos", "content": { "application/json": { "schema": { "type": "array", "items": { "$ref": "#/components/schemas/Todo" } } } } } } },
      "post": {
        "summary": "Create Todo",
        "requestBody": { "required": true, "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Todo" } } } },
        "responses": { "200": { "description": "created todo" }, "422": { "description": "validation error" } }
      }
    },
    "/todos/{todo_id}": {
      "parameters": [ { "name": "todo_id", "in": "path", "required": true, "schema": { "type": "integer" } } ],
      "put": {
        "summary": "Update Todos",
        "requestBody": { "required": true, "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Todo" } } } },
        "responses": { "200": { "description": "updated todo" }, "404": { "description": "Todo not found" }, "422": { "description": "validation error or id mismatch" }, "500": { "description": "commit failed" } }
      },
      "delete": {
        "summary": "Delete Todo",
        "responses": { "200": { "description": "{\"message\": \"Todo deleted successfully\"}" }, "404": { "description": "Todo not found" } }
      }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`

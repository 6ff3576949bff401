package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the notes service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>coscribe — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document covering the notes API surface.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "coscribe", "version": "v0.1.0" },
  "paths": {
    "/api/notes": {
      "get": { "summary": "List notes owned by or shared with the caller", "responses": { "200": { "description": "array of notes" } } },
      "post": {
        "summary": "Create a note",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"}}}}}},
        "responses": { "201": { "description": "created note" } }
      }
    },
    "/api/notes/{id}": {
      "get": { "summary": "Fetch a note", "responses": { "200": { "description": "note" }, "403": { "description": "no access" }, "404": { "description": "unknown note" } } },
      "put": {
        "summary": "Save an edit, recording the prior body in history",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"}}}}}},
        "responses": { "200": { "description": "updated note" }, "403": { "description": "requires edit access" } }
      },
      "delete": { "summary": "Delete a note (owner only)", "responses": { "200": { "description": "deleted" }, "403": { "description": "not the owner" } } }
    },
    "/api/notes/{id}/history": {
      "get": { "summary": "Bounded prior-state history, oldest first", "responses": { "200": { "description": "history entries" } } }
    },
    "/api/notes/{id}/permissions": {
      "post": {
        "summary": "Grant or update a collaborator role (owner only)",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"role":{"type":"string","enum":["viewer","editor"]}}}}}},
        "responses": { "200": { "description": "updated note" }, "400": { "description": "invalid role or self-share" }, "404": { "description": "target user not found" } }
      }
    },
    "/api/notes/{id}/permissions/{userId}": {
      "delete": { "summary": "Revoke a collaborator (owner only)", "responses": { "200": { "description": "updated note" } } }
    },
    "/api/notes/{id}/share": {
      "post": {
        "summary": "Enable or disable the public share link (owner only)",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"shared":{"type":"boolean"},"sharePermission":{"type":"string","enum":["view","edit"]}}}}}},
        "responses": { "200": { "description": "share state including token" } }
      }
    },
    "/api/notes/{id}/presence": {
      "get": { "summary": "Collaborators currently viewing the note", "responses": { "200": { "description": "collaborator ids" } } }
    },
    "/api/notes/shared/{token}": {
      "get": { "summary": "Resolve a public share link (no auth)", "responses": { "200": { "description": "restricted note view" }, "404": { "description": "unknown or disabled link" } } }
    },
    "/ws": { "get": { "summary": "Live sync websocket", "responses": { "101": { "description": "switching protocols" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`

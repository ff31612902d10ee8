// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/wedgo/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/healthz": {"get": {"summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/api/invitations": {
            "get": {"tags": ["invitations"], "summary": "List the caller's invitations", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "AuthError"}}},
            "post": {"tags": ["invitations"], "summary": "Create a draft invitation", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "name taken"}, "422": {"description": "draft limit reached"}}}
        },
        "/api/invitations/{id}": {
            "get": {"tags": ["invitations"], "summary": "Get an invitation", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "NotFoundError"}}},
            "delete": {"tags": ["invitations"], "summary": "Delete an invitation and its files", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/invitations/{id}/{slice}": {
            "patch": {"tags": ["invitations"], "summary": "Replace one slice of an invitation", "description": "slice is one of display-name, stories, surprise, couple, events, galleries, loadout, music, status. Body and response are {\"value\": ...}.", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "slice", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "ValidationError"}}}
        },
        "/api/invitations/{id}/guests": {
            "get": {"tags": ["guests"], "summary": "List guests", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["guests"], "summary": "Replace the guest list", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "duplicate guest"}, "422": {"description": "guest limit"}}}
        },
        "/api/invitations/{id}/payments": {
            "get": {"tags": ["payments"], "summary": "Paid state of an invitation", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["payments"], "summary": "Record a completed payment (idempotent)", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "Idempotency-Key", "in": "header"}], "responses": {"201": {"description": "Created"}, "409": {"description": "idempotency key in progress"}}}
        },
        "/api/invitations/{id}/checkout": {
            "post": {"tags": ["payments"], "summary": "Start a checkout", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "ValidationError"}}}
        },
        "/api/invitations/{id}/media": {
            "get": {"tags": ["media"], "summary": "List an invitation's files", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["media"], "summary": "Upload an image or audio file", "consumes": ["multipart/form-data"], "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "file", "name": "file", "in": "formData", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/invitations/{id}/media/{key}": {
            "delete": {"tags": ["media"], "summary": "Delete one file", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "key", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "ForbiddenError"}}}
        },
        "/api/public/{name}": {
            "get": {"tags": ["public"], "summary": "Public invitation page data", "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}, {"type": "string", "name": "to", "in": "query"}, {"type": "string", "name": "token", "in": "query"}], "responses": {"200": {"description": "OK"}, "404": {"description": "NotFoundError"}}}
        },
        "/api/comment": {
            "get": {"tags": ["comments"], "summary": "List comments", "parameters": [{"type": "string", "name": "id", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "ForbiddenError"}}},
            "post": {"tags": ["comments"], "summary": "Post a comment", "parameters": [{"type": "string", "name": "id", "in": "query", "required": true}], "responses": {"201": {"description": "Created"}, "422": {"description": "rate limited"}}},
            "patch": {"tags": ["comments"], "summary": "Replace the comment list", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["comments"], "summary": "Delete a comment", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "query", "required": true}, {"type": "string", "name": "alias", "in": "query"}, {"type": "integer", "name": "index", "in": "query"}], "responses": {"200": {"description": "OK"}, "404": {"description": "NotFoundError"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "wedgo API",
	Description:      "Wedding invitation backend: invitations, guests, comments, payments and media.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

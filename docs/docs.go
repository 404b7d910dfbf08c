// Package docs is generated by swag from the controller annotations.
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
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Service health", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/crm/accounts": {
            "get": {"tags": ["crm-accounts"], "summary": "List CRM accounts", "parameters": [{"type": "boolean", "name": "active", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["crm-accounts"], "summary": "Register a CRM account", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/crm/accounts/{id}": {
            "get": {"tags": ["crm-accounts"], "summary": "Get a CRM account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["crm-accounts"], "summary": "Update a CRM account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["crm-accounts"], "summary": "Remove a CRM account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/crm/accounts/{id}/test": {"get": {"tags": ["crm-accounts"], "summary": "Test the CRM connection", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/crm/accounts/{id}/sync": {"post": {"tags": ["sync"], "summary": "Sync all leads of an account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}},
        "/api/crm/accounts/{id}/sync/status": {
            "get": {"tags": ["sync"], "summary": "Get the sync status", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["sync"], "summary": "Clear the sync status", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/crm/accounts/{id}/leads": {
            "get": {"tags": ["leads"], "summary": "List leads", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["leads"], "summary": "Create a lead", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/crm/accounts/{id}/leads/export": {"get": {"tags": ["leads"], "summary": "Export leads as xlsx", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/crm/accounts/{id}/leads/import": {"post": {"tags": ["leads"], "summary": "Import leads from xlsx", "consumes": ["multipart/form-data"], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "file", "name": "file", "in": "formData", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/crm/accounts/{id}/leads/{leadId}": {
            "get": {"tags": ["leads"], "summary": "Get a lead", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "leadId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["leads"], "summary": "Update a lead", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "leadId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["leads"], "summary": "Delete a lead", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "leadId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/crm/accounts/{id}/pipelines": {"get": {"tags": ["pipelines"], "summary": "List pipelines", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/crm/accounts/{id}/fields": {"get": {"tags": ["fields"], "summary": "List field definitions", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "objectType", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/api/webhooks/crm": {"post": {"tags": ["webhooks"], "summary": "Receive a CRM webhook", "parameters": [{"type": "string", "name": "accountId", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/webhooks/logs": {
            "get": {"tags": ["webhooks"], "summary": "List webhook logs", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["webhooks"], "summary": "Purge old webhook logs", "parameters": [{"type": "integer", "name": "hoursOld", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/webhooks/meta": {
            "get": {"tags": ["meta"], "summary": "Verify the Meta subscription", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "post": {"tags": ["meta"], "summary": "Receive Meta lead ads", "responses": {"200": {"description": "OK"}}}
        },
        "/api/webhooks/whatsapp": {
            "get": {"tags": ["whatsapp"], "summary": "Verify the WhatsApp subscription", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "post": {"tags": ["whatsapp"], "summary": "Receive WhatsApp Cloud events", "responses": {"200": {"description": "OK"}}}
        },
        "/api/scheduler/jobs": {"get": {"tags": ["scheduler"], "summary": "List scheduled jobs", "responses": {"200": {"description": "OK"}}}},
        "/api/scheduler/jobs/{name}/run": {"post": {"tags": ["scheduler"], "summary": "Run a job now", "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "CRM Gateway API",
	Description:      "Multi-tenant CRM integration gateway.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

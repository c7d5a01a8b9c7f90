// Package docs registers the Swagger description of the alert API
package docs

import "github.com/swaggo/swag"

// @title Fraud Alert Service API
// @version 1.0
// @description Query, enrichment and disposition of fraud alerts for the review desk
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/api/v1/alerts": {
            "get": {
                "tags": ["alerts"],
                "summary": "List alerts",
                "parameters": [
                    {"type": "string", "name": "customer", "in": "query"},
                    {"type": "string", "name": "date", "in": "query"},
                    {"type": "string", "name": "time", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "status", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "type", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "country", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "currency", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "source", "in": "query"},
                    {"type": "string", "name": "amount_from", "in": "query"},
                    {"type": "string", "name": "amount_to", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "sort", "in": "query"},
                    {"type": "string", "name": "period", "in": "query"},
                    {"type": "string", "name": "period_date", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/alerts/stats": {
            "get": {"tags": ["alerts"], "summary": "Alert statistics", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/alerts/monthly": {
            "get": {"tags": ["alerts"], "summary": "Monthly alert counts", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/alerts/options": {
            "get": {"tags": ["alerts"], "summary": "Filter options", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/alerts/{id}": {
            "get": {
                "tags": ["alerts"],
                "summary": "Alert detail",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/alerts/{id}/history": {
            "get": {
                "tags": ["alerts"],
                "summary": "Customer alert history",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "period", "in": "query"},
                    {"type": "string", "name": "period_date", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/alerts/{id}/disposition": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["alerts"],
                "summary": "Dispose alert",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "request", "in": "body", "required": true, "schema": {
                        "type": "object",
                        "required": ["status"],
                        "properties": {"status": {"type": "string"}, "feedback": {"type": "string"}}
                    }}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "422": {"description": "Idempotency key reused"}, "429": {"description": "Too Many Requests"}}
            }
        },
        "/api/v1/alerts/{id}/audit": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["alerts"],
                "summary": "Alert audit trail",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health": {"get": {"tags": ["health"], "summary": "Health", "responses": {"200": {"description": "OK"}, "503": {"description": "Unavailable"}}}},
        "/ready": {"get": {"tags": ["health"], "summary": "Readiness", "responses": {"200": {"description": "OK"}, "503": {"description": "Unavailable"}}}},
        "/live": {"get": {"tags": ["health"], "summary": "Liveness", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Fraud Alert Service API",
	Description:      "Query, enrichment and disposition of fraud alerts for the review desk",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

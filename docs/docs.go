// Package docs registers the OpenAPI document served at /openapi.json.
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
        "/analyze-food": {
            "post": {
                "description": "Accepts a multipart image upload and returns estimated nutrition facts",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Analysis"],
                "summary": "Analyze a food image",
                "parameters": [
                    {
                        "type": "file",
                        "description": "Food image",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/nutrition.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.ErrorBody"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/httptransport.ErrorBody"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Analysis"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/analyses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "List recent analyses",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Maximum entries (default 20, max 100)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/webapi.ListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorBody"}}
                }
            }
        },
        "/api/analyses/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "Get one analysis",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Analysis id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/journal.Entry"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.ErrorBody"}}
                }
            }
        },
        "/api/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Status"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "httptransport.ErrorBody": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
            }
        },
        "nutrition.NutritionalInfo": {
            "type": "object",
            "properties": {
                "calories": {"type": "string"},
                "protein": {"type": "string"},
                "carbs": {"type": "string"},
                "fat": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "nutrition.Result": {
            "type": "object",
            "properties": {
                "food_item": {"type": "string"},
                "nutritional_info": {"$ref": "#/definitions/nutrition.NutritionalInfo"}
            }
        },
        "nutrition.Envelope": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/nutrition.Result"}}
            }
        },
        "journal.Entry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "created_at": {"type": "string"},
                "request_id": {"type": "string"},
                "image_digest": {"type": "string"},
                "image_width": {"type": "integer"},
                "image_height": {"type": "integer"},
                "source_format": {"type": "string"},
                "provider": {"type": "string"},
                "model": {"type": "string"},
                "result": {"$ref": "#/definitions/nutrition.Result"},
                "raw_reply": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "latency_ms": {"type": "integer"}
            }
        },
        "webapi.ListResponse": {
            "type": "object",
            "properties": {
                "analyses": {"type": "array", "items": {"$ref": "#/definitions/journal.Entry"}},
                "count": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Food Analyzer API",
	Description:      "Estimates nutrition facts for a photographed dish.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

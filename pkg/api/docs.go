package api

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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/header": {
            "get": {
                "produces": ["application/json"],
                "tags": ["log"],
                "summary": "Log header and decoding summary",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/channels": {
            "get": {
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "List channel incarnations",
                "parameters": [
                    {"type": "integer", "description": "Only incarnations live at this timestamp", "name": "at", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/channels/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "Get the incarnation of a channel",
                "parameters": [
                    {"type": "integer", "description": "Channel ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Timestamp; defaults to the latest incarnation", "name": "at", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/channels/{id}/values": {
            "get": {
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "Get the value history of a channel incarnation",
                "parameters": [
                    {"type": "integer", "description": "Channel ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Timestamp selecting the incarnation", "name": "at", "in": "query"},
                    {"type": "integer", "description": "First timestamp, inclusive", "name": "from", "in": "query"},
                    {"type": "integer", "description": "Last timestamp, inclusive", "name": "to", "in": "query"},
                    {"type": "string", "description": "Numeric filter such as >=1.5", "name": "where", "in": "query"},
                    {"type": "integer", "description": "Array element the filter reads", "name": "element", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/channels/{id}/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "Summarise the numeric values of a channel incarnation",
                "parameters": [
                    {"type": "integer", "description": "Channel ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Timestamp selecting the incarnation", "name": "at", "in": "query"},
                    {"type": "integer", "description": "First timestamp, inclusive", "name": "from", "in": "query"},
                    {"type": "integer", "description": "Last timestamp, inclusive", "name": "to", "in": "query"},
                    {"type": "string", "description": "Numeric filter such as >=1.5", "name": "where", "in": "query"},
                    {"type": "integer", "description": "Array element to read", "name": "element", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "wpilog viewer API",
	Description:      "Query decoded WPILOG channels by time.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

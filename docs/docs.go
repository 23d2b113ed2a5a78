// Package docs registers the OpenAPI description served at /swagger.
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
        "/holds": {
            "post": {
                "description": "Reserves tickets for a bounded time. Send Idempotency-Key to make retries safe.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["holds"],
                "summary": "Create a hold",
                "parameters": [
                    {"type": "string", "description": "Client supplied retry key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Hold request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/holds.CreateHoldRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/holds/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["holds"],
                "summary": "Get a hold",
                "parameters": [{"type": "string", "description": "Hold ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            },
            "delete": {
                "description": "Returns an active hold's tickets to the pool",
                "tags": ["holds"],
                "summary": "Cancel a hold",
                "parameters": [{"type": "string", "description": "Hold ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/holds/{id}/confirm": {
            "post": {
                "description": "Marks an active hold as sold",
                "produces": ["application/json"],
                "tags": ["holds"],
                "summary": "Confirm a hold",
                "parameters": [{"type": "string", "description": "Hold ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/events/{eventId}/holds": {
            "get": {
                "produces": ["application/json"],
                "tags": ["holds"],
                "summary": "List an event's holds",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "eventId", "in": "path", "required": true},
                    {"type": "string", "description": "active, confirmed, expired or cancelled", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/ticket-types": {
            "post": {
                "description": "Creates the inventory counter for a ticket type. Admin only.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Provision a ticket type",
                "parameters": [
                    {"description": "Provisioning request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/inventory.ProvisionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/ticket-types/{id}/inventory": {
            "get": {
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Get ticket type inventory",
                "parameters": [{"type": "string", "description": "Ticket type ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/releases/stream": {
            "get": {
                "description": "Server-Sent Events stream of tickets returned to the pool",
                "produces": ["text/event-stream"],
                "tags": ["releases"],
                "summary": "Stream release events",
                "parameters": [{"type": "string", "description": "Only events for this event ID", "name": "eventId", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "holds.CreateHoldRequest": {
            "type": "object",
            "required": ["eventId", "holdDurationSeconds", "quantity", "ticketTypeId"],
            "properties": {
                "eventId": {"type": "string"},
                "ticketTypeId": {"type": "string"},
                "quantity": {"type": "integer", "minimum": 1},
                "userId": {"type": "string"},
                "holdDurationSeconds": {"type": "integer"}
            }
        },
        "holds.HoldResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "eventId": {"type": "string"},
                "ticketTypeId": {"type": "string"},
                "quantity": {"type": "integer"},
                "userId": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "confirmed", "expired", "cancelled"]},
                "expiresAt": {"type": "string", "format": "date-time"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "inventory.ProvisionRequest": {
            "type": "object",
            "required": ["eventId", "total"],
            "properties": {
                "ticketTypeId": {"type": "string"},
                "eventId": {"type": "string"},
                "total": {"type": "integer", "minimum": 0}
            }
        },
        "inventory.InventoryResponse": {
            "type": "object",
            "properties": {
                "ticketTypeId": {"type": "string"},
                "eventId": {"type": "string"},
                "total": {"type": "integer"},
                "available": {"type": "integer"},
                "reserved": {"type": "integer"}
            }
        },
        "response.StandardApiResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "status_code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {},
                "errors": {}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Ticket Holds API",
	Description:      "Time-bounded ticket reservations with automatic expiry.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs holds the OpenAPI document served under /swagger. It follows
// the layout swag writes so the gin-swagger handler can load it. Keep it in
// step with the handler annotations in internal/transport/http/gin.
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
        "/admin/tables/{id}": {
            "patch": {
                "summary": "Activate or deactivate a table",
                "parameters": [
                    {"type": "integer", "description": "Table ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.UpdateTableRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/users/{id}/venue": {
            "put": {
                "summary": "Assign a staff user to a venue",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload, null venue_id unassigns", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.AssignVenueRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "user or venue not found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/venues": {
            "post": {
                "summary": "Create venue",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateVenueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.CreateVenueResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "venue type not found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/venues/{id}": {
            "delete": {
                "summary": "Soft-delete a venue",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            },
            "patch": {
                "summary": "Open or close a venue",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.UpdateVenueRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/venues/{id}/tables": {
            "post": {
                "summary": "Add a table to a venue",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateTableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Table"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "table number taken", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/reservations": {
            "post": {
                "summary": "Create reservation (idempotent)",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateReservationRequest"}},
                    {"type": "string", "description": "replay-safe key", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.CreateReservationResponse"}},
                    "400": {"description": "validation", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "venue unavailable", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "capacity exceeded / no capacity / idem in progress", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "500": {"description": "transaction failure", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/reservations/{id}/status": {
            "put": {
                "summary": "Change reservation status",
                "parameters": [
                    {"type": "integer", "description": "Reservation ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.UpdateStatusRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "transition not allowed", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/users/{id}/reservations": {
            "get": {
                "summary": "List a client's reservations",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ClientReservation"}}}
                }
            }
        },
        "/venue-types": {
            "get": {
                "summary": "List venue types",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.VenueType"}}}
                }
            }
        },
        "/venues": {
            "get": {
                "summary": "Venue catalogue",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.VenueListing"}}}
                }
            }
        },
        "/venues/{id}": {
            "get": {
                "summary": "Get venue",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.VenueSummary"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/venues/{id}/availability": {
            "get": {
                "summary": "Free seats around a time",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "RFC3339 instant, defaults to now", "name": "at", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.VenueAvailability"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "no capacity configured", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/venues/{id}/reservations": {
            "get": {
                "summary": "List venue reservations",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "RFC3339, inclusive", "name": "from", "in": "query"},
                    {"type": "string", "description": "RFC3339, exclusive", "name": "to", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Reservation"}}}
                }
            }
        },
        "/venues/{id}/reviews": {
            "get": {
                "summary": "List venue reviews, newest first",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Review"}}}
                }
            },
            "post": {
                "summary": "Review a venue",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateReviewRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Review"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "venue not found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/venues/{id}/tables": {
            "get": {
                "summary": "List venue tables",
                "parameters": [
                    {"type": "integer", "description": "Venue ID", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "description": "include inactive tables", "name": "include_inactive", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Table"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.ClientReservation": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "venue_id": {"type": "integer"},
                "table_number": {"type": "integer"},
                "guests_count": {"type": "integer"},
                "contact_name": {"type": "string"},
                "contact_phone": {"type": "string"},
                "contact_email": {"type": "string"},
                "reservation_time": {"type": "string"},
                "status": {"type": "integer"},
                "created_at": {"type": "string"},
                "venue_name": {"type": "string"},
                "venue_type": {"type": "string"}
            }
        },
        "domain.Reservation": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "venue_id": {"type": "integer"},
                "table_number": {"type": "integer"},
                "guests_count": {"type": "integer"},
                "contact_name": {"type": "string"},
                "contact_phone": {"type": "string"},
                "contact_email": {"type": "string"},
                "reservation_time": {"type": "string"},
                "status": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "domain.Review": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "venue_id": {"type": "integer"},
                "rating": {"type": "integer"},
                "comment": {"type": "string"},
                "created_at": {"type": "string"},
                "reviewer_name": {"type": "string"}
            }
        },
        "domain.Table": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "venue_id": {"type": "integer"},
                "table_number": {"type": "integer"},
                "capacity": {"type": "integer"},
                "status": {"type": "string"},
                "is_active": {"type": "boolean"}
            }
        },
        "domain.VenueAvailability": {
            "type": "object",
            "properties": {
                "venue_id": {"type": "integer"},
                "at": {"type": "string"},
                "window_start": {"type": "string"},
                "window_end": {"type": "string"},
                "capacity": {"type": "integer"},
                "occupied": {"type": "integer"},
                "available": {"type": "integer"}
            }
        },
        "domain.VenueListing": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "venue_type_id": {"type": "integer"},
                "venue_type_name": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "is_active": {"type": "boolean"},
                "is_deleted": {"type": "boolean"},
                "created_at": {"type": "string"},
                "review_count": {"type": "integer"},
                "avg_rating": {"type": "number"},
                "total_reservations": {"type": "integer"}
            }
        },
        "domain.VenueSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "venue_type_id": {"type": "integer"},
                "venue_type_name": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "is_active": {"type": "boolean"},
                "is_deleted": {"type": "boolean"},
                "created_at": {"type": "string"},
                "active_tables": {"type": "integer"},
                "total_capacity": {"type": "integer"}
            }
        },
        "domain.VenueType": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "httpgin.AssignVenueRequest": {
            "type": "object",
            "properties": {
                "venue_id": {"type": "integer"}
            }
        },
        "httpgin.CreateReservationRequest": {
            "type": "object",
            "required": ["venue_id"],
            "properties": {
                "venue_id": {"type": "integer"},
                "table_number": {"type": "integer"},
                "guests_count": {"type": "integer"},
                "contact_name": {"type": "string"},
                "contact_phone": {"type": "string"},
                "contact_email": {"type": "string"},
                "reservation_time": {"type": "string"},
                "status": {"type": "integer"},
                "user_id": {"type": "string"}
            }
        },
        "httpgin.CreateReservationResponse": {
            "type": "object",
            "properties": {
                "reservation_id": {"type": "integer"}
            }
        },
        "httpgin.CreateReviewRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "rating": {"type": "integer"},
                "comment": {"type": "string"}
            }
        },
        "httpgin.CreateTableRequest": {
            "type": "object",
            "required": ["capacity", "table_number"],
            "properties": {
                "table_number": {"type": "integer"},
                "capacity": {"type": "integer"}
            }
        },
        "httpgin.CreateVenueRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "venue_type_id": {"type": "integer"}
            }
        },
        "httpgin.CreateVenueResponse": {
            "type": "object",
            "properties": {
                "venue_id": {"type": "integer"}
            }
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "kind": {"type": "string"},
                "field": {"type": "string"},
                "available_seats": {"type": "integer"}
            }
        },
        "httpgin.UpdateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "integer"}
            }
        },
        "httpgin.UpdateTableRequest": {
            "type": "object",
            "required": ["is_active"],
            "properties": {
                "is_active": {"type": "boolean"}
            }
        },
        "httpgin.UpdateVenueRequest": {
            "type": "object",
            "required": ["is_active"],
            "properties": {
                "is_active": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ReserveMe API",
	Description:      "Table reservations with capacity-checked admission.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

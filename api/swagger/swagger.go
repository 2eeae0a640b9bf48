package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fleet Fuel Operations API",
        "description": "Vehicle-to-route assignment and conflict resolution backend",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Units", "description": "Fleet vehicle catalog"},
        {"name": "Routes", "description": "Route catalog"},
        {"name": "Itineraries", "description": "Recurring itinerary templates"},
        {"name": "Availability", "description": "Temporal assignment resolution"},
        {"name": "Exceptional Assignments", "description": "One-time route overrides"},
        {"name": "Permanent Assignments", "description": "Recurring unit-itinerary bindings"},
        {"name": "Reports", "description": "Asynchronous schedule reports"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue tokens",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/units": {
            "get": {
                "tags": ["Units"],
                "summary": "List fleet units",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Units"],
                "summary": "Register a fleet unit",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUnitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/units/{id}": {
            "get": {
                "tags": ["Units"],
                "summary": "Get unit",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Units"],
                "summary": "Update unit",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUnitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Units"],
                "summary": "Take a unit out of service",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/units/{id}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Check whether a unit can take an assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "type", "in": "query", "required": true, "type": "string", "enum": ["EXCEPTIONAL", "PERMANENT"]},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "excludeId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/units/{id}/availability/day": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolve what governs a unit on a date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/units/{id}/availability/range": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolve every day of a date range",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "required": true, "type": "string"},
                    {"name": "end", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/units/{id}/permanent-assignment": {
            "get": {
                "tags": ["Permanent Assignments"],
                "summary": "Get a unit's current permanent assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exceptional-assignments": {
            "get": {
                "tags": ["Exceptional Assignments"],
                "summary": "List exceptional assignments",
                "parameters": [
                    {"name": "unitId", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Exceptional Assignments"],
                "summary": "Assign an exceptional route for one date",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignExceptionalRouteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Date already assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exceptional-assignments/{id}": {
            "put": {
                "tags": ["Exceptional Assignments"],
                "summary": "Update descriptive fields",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateExceptionalRouteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exceptional-assignments/{id}/cancel": {
            "post": {
                "tags": ["Exceptional Assignments"],
                "summary": "Cancel an exceptional assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/permanent-assignments": {
            "post": {
                "tags": ["Permanent Assignments"],
                "summary": "Bind a unit to an itinerary",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePermanentAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Unit already has an active assignment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/permanent-assignments/{id}": {
            "put": {
                "tags": ["Permanent Assignments"],
                "summary": "Update an ACTIVE assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePermanentAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/permanent-assignments/{id}/unassign": {
            "post": {
                "tags": ["Permanent Assignments"],
                "summary": "Release an ACTIVE assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/permanent-assignments/{id}/reactivate": {
            "post": {
                "tags": ["Permanent Assignments"],
                "summary": "Restore an UNASSIGNED assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/permanent-assignments/{id}/obsolete": {
            "post": {
                "tags": ["Permanent Assignments"],
                "summary": "Retire an UNASSIGNED assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/permanent-assignments/{id}/history": {
            "get": {
                "tags": ["Permanent Assignments"],
                "summary": "List an assignment's audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/schedule": {
            "post": {
                "tags": ["Reports"],
                "summary": "Request a unit schedule report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/schedule/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get a report job's status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/schedule/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a completed report",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "CreateUnitRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "plate": {"type": "string"},
                "description": {"type": "string"},
                "operating_mode": {"type": "string"},
                "role": {"type": "string", "enum": ["SUPERVISION", "OPERATIONAL"]}
            },
            "required": ["code", "plate"]
        },
        "UpdateUnitRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "plate": {"type": "string"},
                "description": {"type": "string"},
                "operating_mode": {"type": "string"},
                "role": {"type": "string", "enum": ["SUPERVISION", "OPERATIONAL"]},
                "active": {"type": "boolean"}
            },
            "required": ["code", "plate"]
        },
        "AssignExceptionalRouteRequest": {
            "type": "object",
            "properties": {
                "unit_id": {"type": "string"},
                "route_id": {"type": "string"},
                "travel_date": {"type": "string"},
                "reason_code": {"type": "string"},
                "reason_detail": {"type": "string"},
                "priority": {"type": "string", "enum": ["LOW", "NORMAL", "HIGH", "URGENT"]},
                "requires_authorization": {"type": "boolean"},
                "authorized_by": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["unit_id", "route_id", "travel_date", "reason_code"]
        },
        "UpdateExceptionalRouteRequest": {
            "type": "object",
            "properties": {
                "reason_code": {"type": "string"},
                "reason_detail": {"type": "string"},
                "priority": {"type": "string"},
                "requires_authorization": {"type": "boolean"},
                "authorized_by": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "CreatePermanentAssignmentRequest": {
            "type": "object",
            "properties": {
                "unit_id": {"type": "string"},
                "itinerary_id": {"type": "string"},
                "frequency": {"type": "string", "enum": ["DAILY", "WEEKDAYS", "WEEKENDS", "CUSTOM"]},
                "operating_days": {"type": "array", "items": {"type": "string"}},
                "notes": {"type": "string"}
            },
            "required": ["unit_id", "itinerary_id", "frequency"]
        },
        "UpdatePermanentAssignmentRequest": {
            "type": "object",
            "properties": {
                "itinerary_id": {"type": "string"},
                "frequency": {"type": "string"},
                "operating_days": {"type": "array", "items": {"type": "string"}},
                "notes": {"type": "string"}
            }
        },
        "TransitionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "ScheduleReportRequest": {
            "type": "object",
            "properties": {
                "unit_id": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["unit_id", "start_date", "end_date", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

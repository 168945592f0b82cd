package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UF Rooms API",
        "description": "Classroom availability built from scraped schedule and room metadata snapshots.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "tags": [
        {"name": "Availability", "description": "Open classroom periods by building and room"},
        {"name": "Exports", "description": "CSV, PDF and iCalendar downloads"},
        {"name": "Admin", "description": "Snapshot refresh and status"}
    ],
    "paths": {
        "/periods": {
            "get": {
                "tags": ["Availability"],
                "summary": "Class period table",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Filtered room availability",
                "parameters": [
                    {"name": "building", "in": "query", "type": "string"},
                    {"name": "campus", "in": "query", "type": "string"},
                    {"name": "size", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string", "enum": ["M", "T", "W", "TH", "F", "S", "SU"]},
                    {"name": "openNow", "in": "query", "type": "boolean"},
                    {"name": "minCapacity", "in": "query", "type": "integer"},
                    {"name": "feature", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/buildings": {
            "get": {
                "tags": ["Availability"],
                "summary": "List buildings",
                "parameters": [
                    {"name": "campus", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/buildings/{code}": {
            "get": {
                "tags": ["Availability"],
                "summary": "Building availability",
                "parameters": [{"name": "code", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown building", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/buildings/{code}/rooms/{room}": {
            "get": {
                "tags": ["Availability"],
                "summary": "Room availability",
                "parameters": [
                    {"name": "code", "in": "path", "type": "string", "required": true},
                    {"name": "room", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown building or room", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/buildings/{code}/rooms/{room}/calendar.ics": {
            "get": {
                "tags": ["Exports"],
                "summary": "Weekly open periods of a room as iCalendar",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "code", "in": "path", "type": "string", "required": true},
                    {"name": "room", "in": "path", "type": "string", "required": true},
                    {"name": "size", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "Calendar file"}, "404": {"description": "Unknown building, room or size"}}
            }
        },
        "/buildings/{code}/schedule.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Weekly open periods of a building as PDF",
                "produces": ["application/pdf"],
                "parameters": [{"name": "code", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "PDF file"}, "404": {"description": "Unknown building"}}
            }
        },
        "/exports/availability.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Availability as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "building", "in": "query", "type": "string"},
                    {"name": "size", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "CSV file"}, "503": {"description": "No dataset loaded"}}
            }
        },
        "/admin/refresh": {
            "post": {
                "tags": ["Admin"],
                "summary": "Enqueue a snapshot refresh",
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/status": {
            "get": {
                "tags": ["Admin"],
                "summary": "Dataset and process status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
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

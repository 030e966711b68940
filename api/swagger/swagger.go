package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Plan API",
        "description": "Study planner with AI-backed plan generation, deterministic fallback synthesis, and schedule conflict detection",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Plans", "description": "Study plan generation and management"},
        {"name": "Slots", "description": "Weekly study slot availability"}
    ],
    "paths": {
        "/plans/generate": {
            "post": {
                "tags": ["Plans"],
                "summary": "Generate a study plan",
                "description": "Generates a plan (AI with deterministic fallback), checks it for schedule conflicts, and either saves it or stages it pending a user decision.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "Conflicts found, decision required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Plan saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/generate/stream": {
            "post": {
                "tags": ["Plans"],
                "summary": "Generate a study plan with progress streaming",
                "description": "Same pipeline as /plans/generate but emits server-sent events for each stage before the final result.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        },
        "/plans/resolve": {
            "post": {
                "tags": ["Plans"],
                "summary": "Resolve a staged plan",
                "description": "Settles a plan staged over conflicts: overwrite saves it as-is, regenerate replaces it with a conflict-free schedule, cancel discards it.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolvePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/conflicts/check": {
            "post": {
                "tags": ["Plans"],
                "summary": "Check a plan for schedule conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans": {
            "get": {
                "tags": ["Plans"],
                "summary": "List stored plans",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/{id}": {
            "get": {
                "tags": ["Plans"],
                "summary": "Get a stored plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Plans"],
                "summary": "Delete a stored plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/plans/{id}/status": {
            "patch": {
                "tags": ["Plans"],
                "summary": "Update a plan's lifecycle status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePlanStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/{id}/export": {
            "get": {
                "tags": ["Plans"],
                "summary": "Export a stored plan as PDF or CSV",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/slots/available": {
            "get": {
                "tags": ["Slots"],
                "summary": "List available study slots",
                "description": "Returns the canonical weekly slot catalogue minus slots occupied by active plans.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GeneratePlanRequest": {
            "type": "object",
            "properties": {
                "subjects": {"type": "array", "items": {"type": "string"}},
                "dailyHours": {"type": "number"},
                "targetDate": {"type": "string"},
                "specificTopics": {"type": "array", "items": {"type": "string"}},
                "includeWeekends": {"type": "string", "enum": ["weekdays", "all", "flexible"]},
                "preferredTimes": {"type": "string", "enum": ["morning", "afternoon", "evening", "night"]},
                "planName": {"type": "string"}
            },
            "required": ["subjects", "dailyHours", "targetDate"]
        },
        "ResolvePlanRequest": {
            "type": "object",
            "properties": {
                "pendingId": {"type": "string"},
                "action": {"type": "string", "enum": ["overwrite", "regenerate", "cancel"]}
            },
            "required": ["pendingId", "action"]
        },
        "CheckConflictsRequest": {
            "type": "object",
            "properties": {
                "plan": {"type": "object"},
                "excludePlanId": {"type": "string"}
            },
            "required": ["plan"]
        },
        "UpdatePlanStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["active", "completed", "inactive"]}
            },
            "required": ["status"]
        },
        "Conflict": {
            "type": "object",
            "properties": {
                "day": {"type": "string"},
                "timeSlot": {"type": "string"},
                "existingSubject": {"type": "string"},
                "newSubject": {"type": "string"},
                "existingPlan": {"type": "string"},
                "existingPlanId": {"type": "string"}
            }
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

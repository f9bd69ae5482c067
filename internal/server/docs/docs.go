// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Policeform Maintainers",
            "url": "https://github.com/raysh454/policeform"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.HealthResponse"}}
                }
            }
        },
        "/browser-status": {
            "get": {
                "description": "Served from a cache; a stale entry triggers one probe launch.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Browser launch capability",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/readiness.Status"}}
                }
            }
        },
        "/api/police/submit/tenant": {
            "post": {
                "description": "Fills and submits the police verification form. With async=true the\nsubmission runs in the background and 202 is returned at once.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Submit a tenant verification",
                "parameters": [
                    {"type": "boolean", "description": "run in the background", "name": "async", "in": "query"},
                    {"description": "tenant details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SubmissionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SubmissionResult"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/server.AsyncAcceptedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.SubmissionResult"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.SubmissionResult"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.SubmissionResult"}}
                }
            }
        },
        "/api/police/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Submissions still held in memory",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Job"}}}
                }
            }
        },
        "/api/police/jobs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Live state of a recent submission",
                "parameters": [{"type": "string", "description": "submission id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Job"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/police/submissions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Recent submissions",
                "parameters": [{"type": "integer", "description": "max records (default 50)", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/history.Record"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/police/submissions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "One past submission",
                "parameters": [{"type": "string", "description": "submission id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/history.Record"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/cors-test": {
            "get": {
                "produces": ["application/json"],
                "tags": ["diagnostics"],
                "summary": "Echo the CORS decision for the caller's Origin",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.CORSTestResponse"}}
                }
            }
        }
    },
    "definitions": {
        "history.Record": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string"},
                "error_kind": {"type": "string"},
                "message": {"type": "string"},
                "reference_number": {"type": "string"},
                "applicant": {
                    "type": "object",
                    "properties": {
                        "first_name": {"type": "string"},
                        "last_name": {"type": "string"},
                        "police_district": {"type": "string"},
                        "police_station": {"type": "string"}
                    }
                },
                "created_at": {"type": "string"},
                "finished_at": {"type": "string"}
            }
        },
        "model.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["idle", "filling", "submitting", "success", "failed"]},
                "result": {"$ref": "#/definitions/model.SubmissionResult"},
                "started_at": {"type": "string"},
                "ended_at": {"type": "string"}
            }
        },
        "model.SubmissionRequest": {
            "type": "object",
            "properties": {
                "id_type": {"type": "string", "example": "Aadhaar Card"},
                "id_number": {"type": "string"},
                "first_name": {"type": "string", "example": "Asha"},
                "middle_name": {"type": "string"},
                "last_name": {"type": "string", "example": "Meena"},
                "father_first_name": {"type": "string"},
                "father_middle_name": {"type": "string"},
                "father_last_name": {"type": "string"},
                "caste": {"type": "string"},
                "date_of_birth": {"type": "string", "example": "15-06-2000"},
                "age": {"type": "string"},
                "phone": {"type": "string"},
                "permanent_address": {"type": "string"},
                "rented_address": {"type": "string"},
                "rent_amount": {"type": "string"},
                "rental_duration": {"type": "string"},
                "property_type": {"type": "string"},
                "referenced_by": {"type": "string"},
                "state": {"type": "string", "example": "Rajasthan"},
                "police_district": {"type": "string", "example": "Jaipur East"},
                "police_station": {"type": "string", "example": "Adarsh Nagar"},
                "photo_url": {"type": "string"},
                "id_photo_url": {"type": "string"},
                "landlord_first_name": {"type": "string"},
                "landlord_middle_name": {"type": "string"},
                "landlord_last_name": {"type": "string"},
                "landlord_father_first_name": {"type": "string"},
                "landlord_father_middle_name": {"type": "string"},
                "landlord_father_last_name": {"type": "string"},
                "landlord_mobile": {"type": "string"},
                "landlord_address": {"type": "string"},
                "landlord_district": {"type": "string"},
                "landlord_station": {"type": "string"}
            }
        },
        "model.SubmissionResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "reference_number": {"type": "string"},
                "error_kind": {"type": "string", "enum": ["VALIDATION_ERROR", "BROWSER_UNAVAILABLE", "FILE_FETCH_ERROR", "REMOTE_VALIDATION_ERROR", "REFERENCE_NOT_FOUND", "TIMEOUT", "SUBMISSION_ERROR"]},
                "message": {"type": "string"},
                "details": {"type": "array", "items": {"type": "string"}},
                "retryable": {"type": "boolean"},
                "submission_id": {"type": "string"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "readiness.Status": {
            "type": "object",
            "properties": {
                "ready": {"type": "boolean"},
                "lastChecked": {"type": "string"},
                "cached": {"type": "boolean"}
            }
        },
        "server.AsyncAcceptedResponse": {
            "type": "object",
            "properties": {
                "submission_id": {"type": "string"},
                "status": {"type": "string"},
                "status_url": {"type": "string"},
                "events_url": {"type": "string"}
            }
        },
        "server.CORSTestResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "origin": {"type": "string"},
                "allowed": {"type": "boolean"}
            }
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "not found"}
            }
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "browserReady": {"type": "boolean"}
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
	Title:            "Police Form API",
	Description:      "Submits tenant verification requests to the Rajasthan Police portal through a headless browser.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

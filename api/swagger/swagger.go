package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Progress API",
        "description": "Progress and assessment tracking for course playback",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Progress", "description": "Lesson and course progress"},
        {"name": "Playback", "description": "Monitored playback sessions"},
        {"name": "Assessments", "description": "Quiz attempts and history"},
        {"name": "Dashboard", "description": "Learner dashboard"},
        {"name": "Certificates", "description": "Completion certificates"}
    ],
    "paths": {
        "/enrollments": {
            "get": {
                "tags": ["Progress"],
                "summary": "List the learner's enrollments",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Progress"],
                "summary": "Enroll into a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progress/lessons": {
            "post": {
                "tags": ["Progress"],
                "summary": "Record lesson progress",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordProgressRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found"}
                }
            }
        },
        "/progress/courses/{courseId}": {
            "get": {
                "tags": ["Progress"],
                "summary": "Get course progress",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found"}
                }
            }
        },
        "/playback/sessions": {
            "post": {
                "tags": ["Playback"],
                "summary": "Open a playback session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/playback/sessions/{lessonId}": {
            "delete": {
                "tags": ["Playback"],
                "summary": "Close a playback session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Closed"}
                }
            }
        },
        "/playback/sessions/{lessonId}/events": {
            "post": {
                "tags": ["Playback"],
                "summary": "Report playback telemetry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlaybackEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/quizzes/{quizId}/attempts": {
            "get": {
                "tags": ["Assessments"],
                "summary": "List the learner's attempts for one quiz",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "quizId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assessments"],
                "summary": "Submit a quiz attempt",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "quizId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAttemptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Scored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid answers"},
                    "404": {"description": "Quiz not found"}
                }
            }
        },
        "/attempts": {
            "get": {
                "tags": ["Assessments"],
                "summary": "List the learner's attempts grouped by quiz",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Learner dashboard summary",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{courseId}/certificate": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download the course completion certificate",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF"},
                    "412": {"description": "Course not completed"}
                }
            }
        }
    },
    "definitions": {
        "EnrollRequest": {
            "type": "object",
            "required": ["courseId"],
            "properties": {
                "courseId": {"type": "string"}
            }
        },
        "RecordProgressRequest": {
            "type": "object",
            "required": ["courseId", "lessonId"],
            "properties": {
                "courseId": {"type": "string"},
                "lessonId": {"type": "string"},
                "percent": {"type": "integer", "minimum": 0, "maximum": 100}
            }
        },
        "OpenSessionRequest": {
            "type": "object",
            "required": ["courseId", "lessonId"],
            "properties": {
                "courseId": {"type": "string"},
                "lessonId": {"type": "string"}
            }
        },
        "PlaybackEventRequest": {
            "type": "object",
            "required": ["state"],
            "properties": {
                "position": {"type": "number"},
                "duration": {"type": "number"},
                "state": {"type": "string", "enum": ["unstarted", "playing", "paused", "buffering", "ended"]}
            }
        },
        "SubmitAttemptRequest": {
            "type": "object",
            "required": ["answers"],
            "properties": {
                "answers": {"type": "array", "items": {"type": "integer"}}
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Portal API",
        "description": "Academic calendar and course enrollment engine",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "AcademicYears", "description": "Academic calendar and the current-year pointer"},
        {"name": "Enrollments", "description": "Enrollment lifecycle and grading"},
        {"name": "System", "description": "Engine counters"}
    ],
    "paths": {
        "/academic-years": {
            "get": {
                "tags": ["AcademicYears"],
                "summary": "List academic years",
                "parameters": [
                    {"name": "is_active", "in": "query", "type": "boolean"},
                    {"name": "is_current", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["year_code", "start_date", "end_date", "created_at"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["AcademicYears"],
                "summary": "Create academic year",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcademicYearRequest"}}],
                "responses": {
                    "201": {"description": "Created; advisory issues in meta.warnings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed; issues in error.details", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/current": {
            "get": {
                "tags": ["AcademicYears"],
                "summary": "Current academic year, or a calendar-year default",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/academic-years/validate": {
            "post": {
                "tags": ["AcademicYears"],
                "summary": "Validate an academic year candidate",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcademicYearRequest"}}],
                "responses": {"200": {"description": "Validation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/academic-years/{id}": {
            "get": {
                "tags": ["AcademicYears"],
                "summary": "Get academic year",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["AcademicYears"],
                "summary": "Update academic year (year_code is ignored)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcademicYearRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["AcademicYears"],
                "summary": "Delete academic year",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "412": {"description": "Year is current or has enrollments", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/{id}/set-current": {
            "post": {
                "tags": ["AcademicYears"],
                "summary": "Mark academic year as current",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/academic-years/{id}/active": {
            "post": {
                "tags": ["AcademicYears"],
                "summary": "Activate or deactivate academic year",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"is_active": {"type": "boolean"}}}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments (students see only their own)",
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll student in course",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate enrollment or illegal status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Academic year inactive", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/years/{code}/semesters/{semester}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments of an academic year semester",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Enrollments"],
                "summary": "Update enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Delete enrollment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/enrollments/{id}/transition": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Change enrollment status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {
                        "status": {"$ref": "#/definitions/EnrollmentStatus"},
                        "override_payment": {"type": "boolean"}
                    }}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition not permitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/grades": {
            "put": {
                "tags": ["Enrollments"],
                "summary": "Record grade components",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {
                        "midterm_grade": {"type": "number", "minimum": 0, "maximum": 100},
                        "final_grade": {"type": "number", "minimum": 0, "maximum": 100}
                    }}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List a student's enrollments",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Engine counters snapshot",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "AcademicYearRequest": {
            "type": "object",
            "required": ["year_code", "semester", "start_date", "end_date", "registration_start_date", "registration_end_date", "exam_start_date", "exam_end_date"],
            "properties": {
                "year_code": {"type": "string", "example": "2024-2025"},
                "semester": {"type": "integer", "enum": [1, 2]},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "registration_start_date": {"type": "string", "format": "date-time"},
                "registration_end_date": {"type": "string", "format": "date-time"},
                "exam_start_date": {"type": "string", "format": "date-time"},
                "exam_end_date": {"type": "string", "format": "date-time"}
            }
        },
        "EnrollmentStatus": {
            "type": "string",
            "enum": ["PENDING", "REGISTERED", "IN_PROGRESS", "COMPLETED", "DROPPED", "FAILED"]
        },
        "EnrollmentRequest": {
            "type": "object",
            "required": ["student_id", "course_id", "academic_year", "semester"],
            "properties": {
                "student_id": {"type": "string"},
                "course_id": {"type": "string"},
                "academic_year": {"type": "string"},
                "semester": {"type": "integer", "enum": [1, 2]},
                "status": {"$ref": "#/definitions/EnrollmentStatus"},
                "midterm_grade": {"type": "number", "minimum": 0, "maximum": 100},
                "final_grade": {"type": "number", "minimum": 0, "maximum": 100},
                "attendance": {"type": "integer", "minimum": 0, "maximum": 100},
                "is_paid": {"type": "boolean"},
                "override_payment": {"type": "boolean"}
            }
        },
        "ValidationIssue": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "rule": {"type": "string"},
                "severity": {"type": "string", "enum": ["BLOCKING", "WARNING"]},
                "message": {"type": "string"}
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
                "status": {"type": "integer"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/ValidationIssue"}}
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

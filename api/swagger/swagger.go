package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Tracker API",
        "description": "Attendance, marks and presentation tracking for regional student batches.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Authentication",
            "description": "Caller identity"
        },
        {
            "name": "Attendance",
            "description": "Daily attendance, contact logs and aggregates"
        },
        {
            "name": "Planned Absences",
            "description": "Declared absence ranges"
        },
        {
            "name": "Reports",
            "description": "Asynchronous PDF exports"
        },
        {
            "name": "Marks",
            "description": "Exam marks and exam attendance"
        },
        {
            "name": "Presentations",
            "description": "Presentation groups and evaluation"
        },
        {
            "name": "Students",
            "description": "Student roster"
        },
        {
            "name": "Users",
            "description": "Staff accounts"
        },
        {
            "name": "Work Reports",
            "description": "Teacher daily work reports"
        },
        {
            "name": "Exam Plan",
            "description": "Batch exam schedule"
        },
        {
            "name": "Audit",
            "description": "Audit trail"
        },
        {
            "name": "Metrics",
            "description": "Operational metrics"
        }
    ],
    "paths": {
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current principal and allowed operations",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/mark": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance for a day",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/by-batch": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Batch roster with the day's attendance",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/undo": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Delete the caller's marks for a day",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UndoAttendanceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/{id}/history": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance record with its change history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/contact-log": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record outreach to a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContactLogRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            },
            "get": {
                "tags": ["Attendance"],
                "summary": "Recent outreach per region",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/summary": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance summary for a batch and period",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string", "required": true},
                    {"name": "startDate", "in": "query", "type": "string", "required": true},
                    {"name": "endDate", "in": "query", "type": "string", "required": true},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/low-attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Students with repeated absences",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string"},
                    {"name": "minAbsent", "in": "query", "type": "integer"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/engagement": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance leaders and most improved students",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/planned-absences": {
            "post": {
                "tags": ["Planned Absences"],
                "summary": "Declare a planned absence",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreatePlannedAbsenceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            },
            "get": {
                "tags": ["Planned Absences"],
                "summary": "List active planned absences",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string"},
                    {"name": "batchNumber", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/planned-absences/{id}/cancel": {
            "patch": {
                "tags": ["Planned Absences"],
                "summary": "Cancel a planned absence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a PDF attendance report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/attendance/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marks/mark": {
            "post": {
                "tags": ["Marks"],
                "summary": "Record exam marks",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkMarksRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/marks/by-batch": {
            "get": {
                "tags": ["Marks"],
                "summary": "Batch roster with marks",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/marks/missed": {
            "get": {
                "tags": ["Marks"],
                "summary": "Students who missed an exam component",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string"},
                    {"name": "mode", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "theoryDate", "in": "query", "type": "string"},
                    {"name": "practicalDate", "in": "query", "type": "string"},
                    {"name": "presentationDate", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/marks/top": {
            "get": {
                "tags": ["Marks"],
                "summary": "Top scorers of a day",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "region", "in": "query", "type": "string"},
                    {"name": "batchNumber", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/marks/exam-attendance/mark": {
            "post": {
                "tags": ["Marks"],
                "summary": "Record exam attendance",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/MarkExamAttendanceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/marks/exam-attendance/by-batch": {
            "get": {
                "tags": ["Marks"],
                "summary": "Exam attendance of a batch",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/presentations/by-batch": {
            "get": {
                "tags": ["Presentations"],
                "summary": "Presentation groups of a batch",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/presentations/save": {
            "post": {
                "tags": ["Presentations"],
                "summary": "Save group assignments",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SavePresentationsRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/presentations/evaluate": {
            "post": {
                "tags": ["Presentations"],
                "summary": "Score presentations",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/EvaluatePresentationsRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/presentations/lock-evaluation": {
            "post": {
                "tags": ["Presentations"],
                "summary": "Lock or unlock evaluations",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LockEvaluationRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/presentations/update-topic": {
            "post": {
                "tags": ["Presentations"],
                "summary": "Rename a group topic",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTopicRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/presentations/unassign": {
            "post": {
                "tags": ["Presentations"],
                "summary": "Remove students from their groups",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnassignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List active students",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string"},
                    {"name": "schoolName", "in": "query", "type": "string"},
                    {"name": "batchNumber", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/students/{id}": {
            "put": {
                "tags": ["Students"],
                "summary": "Update a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/students/regions": {
            "get": {
                "tags": ["Students"],
                "summary": "Distinct regions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/students/schools": {
            "get": {
                "tags": ["Students"],
                "summary": "Distinct schools",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/students/batches/{region}": {
            "get": {
                "tags": ["Students"],
                "summary": "Distinct batches of a region",
                "parameters": [
                    {"name": "region", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/students/stats": {
            "get": {
                "tags": ["Students"],
                "summary": "Roster counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create a teacher or admin profile",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/users/teachers": {
            "get": {
                "tags": ["Users"],
                "summary": "List teachers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/users/{id}": {
            "delete": {
                "tags": ["Users"],
                "summary": "Delete a user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/work-reports": {
            "post": {
                "tags": ["Work Reports"],
                "summary": "Save the caller's work report",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SaveWorkReportRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            },
            "get": {
                "tags": ["Work Reports"],
                "summary": "List the caller's work reports",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "region", "in": "query", "type": "string"},
                    {"name": "batchNumber", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/work-reports/{id}": {
            "get": {
                "tags": ["Work Reports"],
                "summary": "Get a work report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            },
            "delete": {
                "tags": ["Work Reports"],
                "summary": "Delete a work report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/exam-plan": {
            "get": {
                "tags": ["Exam Plan"],
                "summary": "Exam plan of a batch",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "required": true},
                    {"name": "batchNumber", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            },
            "put": {
                "tags": ["Exam Plan"],
                "summary": "Save the exam plan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveExamPlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/audit-logs": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit entries",
                "parameters": [
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "entity", "in": "query", "type": "string"},
                    {"name": "actorId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        },
        "/metrics/system": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Process metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [
                    {"BearerAuth": []}
                ]
            }
        }
    },
    "definitions": {
        "AttendanceRecordInput": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "status": {"type": "string", "enum": ["present", "absent", "late", "leave"]},
                "note": {"type": "string"}
            },
            "required": ["studentId", "status"]
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "attendanceRecords": {"type": "array", "items": {"$ref": "#/definitions/AttendanceRecordInput"}}
            },
            "required": ["date", "attendanceRecords"]
        },
        "UndoAttendanceRequest": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "date": {"type": "string"},
                "batchNumber": {"type": "string"},
                "studentIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["region", "date"]
        },
        "ContactLogRequest": {
            "type": "object",
            "properties": {"studentId": {"type": "string"}, "phone": {"type": "string"}, "source": {"type": "string"}},
            "required": ["studentId"]
        },
        "CreatePlannedAbsenceRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "fromDate": {"type": "string"},
                "toDate": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["studentId", "fromDate", "toDate", "reason"]
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["attendance_summary", "low_attendance"]},
                "region": {"type": "string"},
                "batchNumber": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "status": {"type": "string"},
                "minAbsent": {"type": "integer"},
                "days": {"type": "integer"}
            },
            "required": ["region"]
        },
        "MarksInput": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "theory": {"type": "number"},
                "practical": {"type": "number"},
                "presentation": {"type": "number"}
            },
            "required": ["studentId"]
        },
        "MarkMarksRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "marksRecords": {"type": "array", "items": {"$ref": "#/definitions/MarksInput"}}
            },
            "required": ["marksRecords"]
        },
        "ExamAttendanceInput": {
            "type": "object",
            "properties": {"studentId": {"type": "string"}, "appeared": {"type": "boolean"}},
            "required": ["studentId"]
        },
        "MarkExamAttendanceRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "records": {"type": "array", "items": {"$ref": "#/definitions/ExamAttendanceInput"}}
            },
            "required": ["date", "records"]
        },
        "PresentationAssignment": {
            "type": "object",
            "properties": {"studentId": {"type": "string"}, "groupNumber": {"type": "integer"}},
            "required": ["studentId"]
        },
        "SavePresentationsRequest": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "batchNumber": {"type": "string"},
                "date": {"type": "string"},
                "topic": {"type": "string"},
                "groupTopics": {"type": "object", "additionalProperties": {"type": "string"}},
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/PresentationAssignment"}}
            },
            "required": ["region", "batchNumber", "date", "assignments"]
        },
        "PresentationEvaluation": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "content": {"type": "number"},
                "design": {"type": "number"},
                "communication": {"type": "number"}
            },
            "required": ["studentId"]
        },
        "EvaluatePresentationsRequest": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "batchNumber": {"type": "string"},
                "date": {"type": "string"},
                "evaluations": {"type": "array", "items": {"$ref": "#/definitions/PresentationEvaluation"}}
            },
            "required": ["region", "batchNumber", "date", "evaluations"]
        },
        "LockEvaluationRequest": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "batchNumber": {"type": "string"},
                "date": {"type": "string"},
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "locked": {"type": "boolean"}
            },
            "required": ["region", "batchNumber", "date", "studentIds"]
        },
        "UpdateTopicRequest": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "batchNumber": {"type": "string"},
                "date": {"type": "string"},
                "groupNumber": {"type": "integer"},
                "topic": {"type": "string"}
            },
            "required": ["region", "batchNumber", "date", "groupNumber"]
        },
        "UnassignRequest": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "batchNumber": {"type": "string"},
                "date": {"type": "string"},
                "studentIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["region", "batchNumber", "date", "studentIds"]
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "region": {"type": "string"},
                "schoolName": {"type": "string"},
                "batchNumber": {"type": "string"},
                "mobile": {"type": "string"},
                "age": {"type": "integer"},
                "standard": {"type": "string"}
            },
            "required": ["name", "region", "schoolName", "batchNumber"]
        },
        "UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "region": {"type": "string"},
                "schoolName": {"type": "string"},
                "batchNumber": {"type": "string"},
                "mobile": {"type": "string"},
                "age": {"type": "integer"},
                "standard": {"type": "string"},
                "isActive": {"type": "boolean"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["teacher", "admin"]},
                "mobile": {"type": "string"}
            },
            "required": ["name", "email", "role"]
        },
        "SaveWorkReportRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "region": {"type": "string"},
                "batchNumber": {"type": "string"},
                "subject": {"type": "string"},
                "topicsCovered": {"type": "string"},
                "assignment": {"type": "string"},
                "attendanceCount": {"type": "integer"}
            },
            "required": ["date", "region", "batchNumber", "subject", "topicsCovered", "assignment", "attendanceCount"]
        },
        "SaveExamPlanRequest": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "batchNumber": {"type": "string"},
                "projectInaugurationDate": {"type": "string"},
                "theoryDate": {"type": "string"},
                "practicalDate": {"type": "string"},
                "presentationDate": {"type": "string"},
                "certificateDate": {"type": "string"}
            },
            "required": ["region"]
        },
        "Pagination": {
            "type": "object",
            "properties": {"page": {"type": "integer"}, "pageSize": {"type": "integer"}, "totalCount": {"type": "integer"}}
        },
        "APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}, "fields": {"type": "object", "additionalProperties": {"type": "string"}}}
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

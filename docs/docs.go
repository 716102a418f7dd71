// Package docs holds the OpenAPI description served under /swagger.
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
        "/v1/users": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create a user",
                "parameters": [
                    {"description": "User fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/userRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/v1/users/batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Queue user upserts",
                "parameters": [
                    {"description": "Upsert jobs", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/batchRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/batchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "503": {"description": "Partially queued", "schema": {"$ref": "#/definitions/batchResponse"}},
                    "504": {"description": "Partially queued before the deadline", "schema": {"$ref": "#/definitions/batchResponse"}}
                }
            }
        },
        "/v1/users/translators": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List translators",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/listUsersResponse"}}
                }
            }
        },
        "/v1/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/userDetailsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a user",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"description": "User fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/userRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/v1/users/{id}/enable": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Enable a user",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/v1/users/{id}/disable": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Disable a user",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "userRequest": {
            "type": "object",
            "required": ["role"],
            "properties": {
                "role": {"type": "integer"},
                "name": {"type": "string"},
                "company_id": {"type": "string", "description": "string or number; empty or malformed stores 0"},
                "department_id": {"type": "string", "description": "string or number; empty or malformed stores 0"},
                "email": {"type": "string"},
                "dob_or_orgid": {"type": "string"},
                "phone": {"type": "string"},
                "mobile": {"type": "string"},
                "password": {"type": "string"},
                "status": {"type": "string", "description": "\"1\" or 1 enables, anything else disables"},
                "consumer_type": {"type": "string"},
                "customer_type": {"type": "string"},
                "username": {"type": "string"},
                "city": {"type": "string"},
                "country": {"type": "string"},
                "reference": {"type": "string", "description": "\"yes\" marks a reference customer"},
                "cost_place": {"type": "string"},
                "fee": {"type": "string"},
                "time_to_charge": {"type": "string"},
                "time_to_pay": {"type": "string"},
                "charge_ob": {"type": "string"},
                "customer_id": {"type": "string"},
                "charge_km": {"type": "string"},
                "maximum_km": {"type": "string"},
                "translator_type": {"type": "string"},
                "worked_for": {"type": "string"},
                "organization_number": {"type": "string", "description": "stored only when worked_for is \"yes\""},
                "gender": {"type": "string"},
                "translator_level": {"type": "string"},
                "address_2": {"type": "string"},
                "post_code": {"type": "string"},
                "address": {"type": "string"},
                "town": {"type": "string"},
                "additional_info": {"type": "string"},
                "translator_ex": {"type": "array", "items": {"type": "integer"}},
                "user_language": {"type": "array", "items": {"type": "integer"}},
                "user_towns_projects": {"type": "array", "items": {"type": "integer"}},
                "new_towns": {"type": "string"}
            }
        },
        "userResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "role": {"type": "integer"},
                "name": {"type": "string"},
                "company_id": {"type": "integer"},
                "department_id": {"type": "integer"},
                "email": {"type": "string"},
                "dob_or_orgid": {"type": "string"},
                "phone": {"type": "string"},
                "mobile": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "_links": {"type": "object", "properties": {"self": {"type": "string"}}}
            }
        },
        "userDetailsResponse": {
            "type": "object",
            "allOf": [{"$ref": "#/definitions/userResponse"}],
            "properties": {
                "translator_ex": {"type": "array", "items": {"type": "integer"}},
                "user_language": {"type": "array", "items": {"type": "integer"}},
                "user_towns_projects": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "listUsersResponse": {
            "type": "object",
            "properties": {
                "users": {"type": "array", "items": {"$ref": "#/definitions/userResponse"}},
                "total": {"type": "integer"}
            }
        },
        "batchRequest": {
            "type": "object",
            "required": ["jobs"],
            "properties": {
                "jobs": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "required": ["user"],
                        "properties": {
                            "id": {"type": "integer"},
                            "user": {"$ref": "#/definitions/userRequest"}
                        }
                    }
                }
            }
        },
        "batchResponse": {
            "type": "object",
            "properties": {
                "accepted": {"type": "integer"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "User Service API",
	Description:      "Administration of customer, translator and admin accounts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

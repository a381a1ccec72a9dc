// Package docs registers the OpenAPI description of the nnrunner HTTP API
// with swag. Regenerate with `swag init -g cmd/nnrunner/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "nnrunner maintainers"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/layers": {
            "get": {
                "produces": ["application/json"],
                "summary": "List compiled layers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.LayersResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Device and session controller status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/offload": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Run layers 0..offloading_layer_index on an input grid",
                "parameters": [
                    {
                        "description": "Offload request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.InferenceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ResultMessage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "invalid JSON body"},
                "kind": {"type": "string", "example": "invalid_depth"}
            }
        },
        "types.InferenceRequest": {
            "type": "object",
            "properties": {
                "input_data": {"type": "string"},
                "offloading_layer_index": {"type": "integer", "example": 2}
            }
        },
        "types.LayerInfo": {
            "type": "object",
            "properties": {
                "arena_bytes": {"type": "integer", "example": 528},
                "index": {"type": "integer", "example": 0},
                "input_height": {"type": "integer", "example": 10},
                "input_width": {"type": "integer", "example": 10},
                "name": {"type": "string", "example": "layer_0.nnl"},
                "ops": {"type": "integer", "example": 1},
                "output_size": {"type": "integer", "example": 32},
                "schema_version": {"type": "integer", "example": 3},
                "size_bytes": {"type": "integer", "example": 12944}
            }
        },
        "types.LayersResponse": {
            "type": "object",
            "properties": {
                "layers": {"type": "array", "items": {"$ref": "#/definitions/types.LayerInfo"}}
            }
        },
        "types.ResultContent": {
            "type": "object",
            "properties": {
                "layer_output": {"type": "array", "items": {"type": "string"}},
                "layers_inference_time": {"type": "array", "items": {"type": "number"}},
                "offloading_layer_index": {"type": "integer", "example": 2}
            }
        },
        "types.ResultMessage": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string", "example": "device_01"},
                "message_content": {"$ref": "#/definitions/types.ResultContent"},
                "message_id": {"type": "string", "example": "9f3a"},
                "timestamp": {"type": "string", "example": "1700000000.123456"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "arena_bytes": {"type": "integer", "example": 12288},
                "busy_rejections_total": {"type": "integer", "example": 0},
                "completed_total": {"type": "integer", "example": 11},
                "device_id": {"type": "string", "example": "device_01"},
                "failed_total": {"type": "integer", "example": 1},
                "last_depth": {"type": "integer", "example": 2},
                "last_error": {"type": "string"},
                "layers": {"type": "integer", "example": 5},
                "pending_input": {"type": "boolean", "example": false},
                "registered": {"type": "boolean", "example": true},
                "server_time_unix": {"type": "integer", "example": 1700000000},
                "sessions_total": {"type": "integer", "example": 12},
                "state": {"type": "string", "example": "completed"},
                "uptime_seconds": {"type": "integer", "example": 3600}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "nnrunner API",
	Description:      "Local HTTP API of the layer-wise inference device agent.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

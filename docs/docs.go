// Package docs registers the OpenAPI document served by the swagger UI.
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
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/api/v1/purchase/verify": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Purchase"],
                "summary": "Verify Purchase",
                "description": "Verifies a client-submitted receipt or purchase token with the originating store and updates the stored subscription state.",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/webhook/apple": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Webhook"],
                "summary": "Apple Webhook",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/webhook/google": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Webhook"],
                "summary": "Google Webhook",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/subscriptions/{original_transaction_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Subscription"],
                "summary": "Get Subscription",
                "parameters": [
                    {
                        "type": "string",
                        "name": "original_transaction_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/v1/admin/subscriptions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List Subscriptions (Admin)",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/admin/statistics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Get Statistics (Admin)",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8888",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "IAPGuard API",
	Description:      "Mobile in-app purchase verification and subscription reconciliation API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

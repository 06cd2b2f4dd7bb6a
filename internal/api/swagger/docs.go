package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "Session": {"type": "apiKey", "name": "x-session", "in": "header"}
    },
    "security": [{"Session": []}],
    "paths": {
        "/api/login": {
            "post": {
                "summary": "Exchange the shared password for a session token",
                "tags": ["auth"],
                "security": [],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid password", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api/logout": {
            "post": {"summary": "Revoke the current session", "tags": ["auth"], "responses": {"204": {"description": "No Content"}}}
        },
        "/api/customers": {
            "get": {
                "summary": "List customers and their copiers",
                "tags": ["customers"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Customer"}}}}
            },
            "post": {
                "summary": "Create a customer",
                "tags": ["customers"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/Customer"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Customer"}},
                    "400": {"description": "Invalid profile", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api/customers/{id}": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "get": {"summary": "Get a customer", "tags": ["customers"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Customer"}}, "404": {"description": "Not found"}}},
            "put": {"summary": "Replace a customer and its copiers", "tags": ["customers"], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/Customer"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Customer"}}}},
            "delete": {"summary": "Delete a customer", "tags": ["customers"], "responses": {"204": {"description": "No Content"}}}
        },
        "/api/preview": {
            "post": {
                "summary": "Compute charges without issuing an invoice",
                "tags": ["invoices"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/InvoiceRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Draft"}}, "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/invoice": {
            "post": {
                "summary": "Issue an invoice",
                "tags": ["invoices"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/InvoiceRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/CreateResponse"}}, "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/invoices": {
            "get": {
                "summary": "List issued invoices in issue order",
                "tags": ["invoices"],
                "parameters": [
                    {"in": "query", "name": "customerId", "type": "string"},
                    {"in": "query", "name": "month", "type": "string"},
                    {"in": "query", "name": "year", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Invoice"}}}}
            },
            "post": {
                "summary": "Issue an invoice",
                "tags": ["invoices"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/InvoiceRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/CreateResponse"}}}
            }
        },
        "/api/invoices/export.xlsx": {
            "get": {
                "summary": "Export invoices as a spreadsheet",
                "tags": ["invoices"],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"in": "query", "name": "month", "type": "string"},
                    {"in": "query", "name": "year", "type": "string"}
                ],
                "responses": {"200": {"description": "Workbook"}}
            }
        },
        "/api/invoices/{id}": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "get": {"summary": "Get an invoice", "tags": ["invoices"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Invoice"}}, "404": {"description": "Not found"}}}
        },
        "/api/invoices/{id}/pdf": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "get": {"summary": "Download the invoice PDF", "tags": ["invoices"], "produces": ["application/pdf"], "responses": {"200": {"description": "PDF"}}}
        },
        "/api/invoices/{id}/email": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "post": {
                "summary": "Email the invoice PDF",
                "tags": ["invoices"],
                "parameters": [{"in": "body", "name": "body", "schema": {"type": "object", "properties": {"to": {"type": "string"}}}}],
                "responses": {"204": {"description": "Sent"}, "409": {"description": "Email disabled", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/settings/email": {
            "get": {"summary": "Get email settings", "tags": ["settings"], "responses": {"200": {"description": "OK"}}},
            "put": {"summary": "Save email settings", "tags": ["settings"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/settings/email/test": {
            "post": {"summary": "Send a test email with unsaved settings", "tags": ["settings"], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "Error": {"type": "object", "properties": {"error": {"type": "string"}}},
        "LoginRequest": {"type": "object", "properties": {"password": {"type": "string"}}},
        "LoginResponse": {"type": "object", "properties": {"token": {"type": "string"}, "role": {"type": "string"}}},
        "Copier": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "model": {"type": "string"},
                "bwRate": {"type": "number"},
                "colorRate": {"type": "number"},
                "freeBw": {"type": "number"},
                "freeColor": {"type": "number"},
                "rentalFee": {"type": "number"},
                "minUsageCharge": {"type": "number"}
            }
        },
        "Customer": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "copiers": {"type": "array", "items": {"$ref": "#/definitions/Copier"}}
            }
        },
        "ReadingInput": {
            "type": "object",
            "description": "Numeric fields accept numbers or numeric strings. Omit copierId and send rate fields for a walk-in copier.",
            "properties": {
                "copierId": {"type": "string"},
                "model": {"type": "string"},
                "bwReading": {"type": "number"},
                "colorReading": {"type": "number"},
                "spoilCopies": {"type": "number"},
                "bwRate": {"type": "number"},
                "colorRate": {"type": "number"},
                "freeBw": {"type": "number"},
                "freeColor": {"type": "number"},
                "rentalFee": {"type": "number"},
                "minUsageCharge": {"type": "number"}
            }
        },
        "InvoiceRequest": {
            "type": "object",
            "properties": {
                "customerId": {"type": "string"},
                "customerName": {"type": "string"},
                "month": {"type": "string"},
                "year": {"type": "string"},
                "email": {"type": "string"},
                "copiers": {"type": "array", "items": {"$ref": "#/definitions/ReadingInput"}}
            }
        },
        "InvoiceLine": {
            "type": "object",
            "properties": {
                "copierId": {"type": "string"},
                "model": {"type": "string"},
                "bwReading": {"type": "number"},
                "colorReading": {"type": "number"},
                "spoilCopies": {"type": "number"},
                "netBw": {"type": "string"},
                "netColor": {"type": "string"},
                "chargeableBw": {"type": "number"},
                "chargeableColor": {"type": "number"},
                "usageCharge": {"type": "string"},
                "totalCharge": {"type": "string"},
                "rentalFee": {"type": "number"},
                "totalDue": {"type": "string"}
            }
        },
        "Draft": {
            "type": "object",
            "properties": {
                "customerId": {"type": "string"},
                "customerName": {"type": "string"},
                "month": {"type": "string"},
                "year": {"type": "string"},
                "copiers": {"type": "array", "items": {"$ref": "#/definitions/InvoiceLine"}},
                "totalDue": {"type": "string"}
            }
        },
        "Invoice": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "customerId": {"type": "string"},
                "customerName": {"type": "string"},
                "month": {"type": "string"},
                "year": {"type": "string"},
                "copiers": {"type": "array", "items": {"$ref": "#/definitions/InvoiceLine"}},
                "totalDue": {"type": "string"},
                "dateIssued": {"type": "string"}
            }
        },
        "CreateResponse": {
            "type": "object",
            "properties": {
                "invoice": {"$ref": "#/definitions/Invoice"},
                "pdf": {"type": "string", "description": "base64 encoded PDF"},
                "emailError": {"type": "string"}
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
	Title:            "Copier Billing API",
	Description:      "Meter-reading billing for copier rentals.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Childcare Incidents API",
        "description": "Incident reporting, guardian sign-off and incident report documents for childcare centres.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization"
        }
    },
    "tags": [
        {
            "name": "Incidents",
            "description": "Incident lifecycle"
        },
        {
            "name": "Reports",
            "description": "Incident report documents and guardian copies"
        }
    ],
    "paths": {
        "/incidents": {
            "get": {
                "tags": [
                    "Incidents"
                ],
                "summary": "List incidents",
                "parameters": [
                    {
                        "name": "view",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "pending_signature",
                            "follow_up"
                        ]
                    },
                    {
                        "name": "asOf",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Report a new incident",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateIncidentRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/stats": {
            "get": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Incident dashboard counters",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/templates": {
            "get": {
                "tags": [
                    "Incidents"
                ],
                "summary": "List incident templates",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/from-template": {
            "post": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Create an incident from a template",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateFromTemplateRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/export": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Export the incident register",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Register file"
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}": {
            "get": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Get an incident",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "patch": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Update editable incident fields",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateIncidentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Incident closed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}/history": {
            "get": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Incident audit trail",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}/notify-parent": {
            "post": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Record the guardian notification",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/NotifyParentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}/signature": {
            "post": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Record the guardian signature",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SignatureRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Signature result",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Transition not allowed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}/close": {
            "post": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Close a signed incident",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/CloseIncidentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Signature required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}/follow-up/complete": {
            "post": {
                "tags": [
                    "Incidents"
                ],
                "summary": "Mark the follow-up as completed",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}/report": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Render the incident report as HTML",
                "produces": [
                    "text/html"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "mode",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "print"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "HTML document"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}/report/download": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Download the incident report",
                "produces": [
                    "application/pdf",
                    "text/html"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "pdf",
                            "html"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Report file"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/incidents/{id}/report/share": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Share a PDF copy with the guardian",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Signed download link",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/download": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Download a shared guardian copy",
                "produces": [
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "query",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "PDF"
                    },
                    "403": {
                        "description": "Invalid or expired token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
            }
        },
        "CreateIncidentRequest": {
            "type": "object",
            "required": [
                "child_id",
                "incident_type",
                "severity",
                "occurred_at",
                "description"
            ],
            "properties": {
                "child_id": {
                    "type": "string"
                },
                "classroom_id": {
                    "type": "string"
                },
                "incident_type": {
                    "type": "string",
                    "enum": [
                        "injury",
                        "illness",
                        "behavioral",
                        "medication",
                        "property_damage",
                        "security",
                        "other"
                    ]
                },
                "severity": {
                    "type": "string",
                    "enum": [
                        "minor",
                        "moderate",
                        "serious",
                        "critical"
                    ]
                },
                "occurred_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "location": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "action_taken": {
                    "type": "string"
                },
                "witness_staff_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "witness_names": {
                    "type": "string"
                },
                "parent_notified": {
                    "type": "boolean"
                },
                "parent_notified_method": {
                    "type": "string",
                    "enum": [
                        "phone",
                        "in_person",
                        "email",
                        "text"
                    ]
                },
                "follow_up_required": {
                    "type": "boolean"
                },
                "follow_up_date": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "UpdateIncidentRequest": {
            "type": "object",
            "description": "Only keys present are written; null clears a nullable field.",
            "properties": {
                "classroom_id": {
                    "type": "string"
                },
                "incident_type": {
                    "type": "string"
                },
                "severity": {
                    "type": "string"
                },
                "occurred_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "location": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "action_taken": {
                    "type": "string"
                },
                "witness_staff_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "witness_names": {
                    "type": "string"
                },
                "parent_notified": {
                    "type": "boolean"
                },
                "parent_notified_method": {
                    "type": "string"
                },
                "parent_notified_by": {
                    "type": "string"
                },
                "parent_copy_sent": {
                    "type": "boolean"
                },
                "follow_up_required": {
                    "type": "boolean"
                },
                "follow_up_date": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "CreateFromTemplateRequest": {
            "type": "object",
            "required": [
                "template",
                "child_id"
            ],
            "properties": {
                "template": {
                    "type": "string"
                },
                "child_id": {
                    "type": "string"
                },
                "classroom_id": {
                    "type": "string"
                }
            }
        },
        "NotifyParentRequest": {
            "type": "object",
            "required": [
                "method"
            ],
            "properties": {
                "method": {
                    "type": "string",
                    "enum": [
                        "phone",
                        "in_person",
                        "email",
                        "text"
                    ]
                }
            }
        },
        "SignatureRequest": {
            "type": "object",
            "required": [
                "signature_data",
                "signed_by_name",
                "signed_by_relationship"
            ],
            "properties": {
                "signature_data": {
                    "type": "string"
                },
                "signed_by_name": {
                    "type": "string"
                },
                "signed_by_relationship": {
                    "type": "string"
                }
            }
        },
        "CloseIncidentRequest": {
            "type": "object",
            "properties": {
                "notes": {
                    "type": "string"
                }
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

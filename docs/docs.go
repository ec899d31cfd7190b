// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/server/main.go`.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Проверка живости",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/vote/validate": {
            "post": {
                "description": "Проверяет капчу, создаёт пользователя по телефону и отправляет код подтверждения",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Vote"],
                "summary": "Запрос SMS-кода",
                "parameters": [
                    {"description": "Данные подписанта", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "429": {"description": "Too Many Requests", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/vote/verify_sms": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Vote"],
                "summary": "Подтверждение SMS-кода",
                "parameters": [
                    {"description": "Телефон и код", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.VerifySMSRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/vote/vote_info": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Vote"],
                "summary": "Публичная информация о кампании",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.VotingInfo"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/vote/all_user": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Список подписантов",
                "parameters": [
                    {"type": "boolean", "description": "Фильтр по valid_vote", "name": "valid", "in": "query"},
                    {"type": "integer", "description": "Страница (с 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Размер страницы", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/vote/update_user": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Изменить valid_vote подписанта",
                "parameters": [
                    {"description": "id и новое значение", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/vote/voting": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Текущая кампания (полные данные)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Voting"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Создать кампанию",
                "parameters": [
                    {"description": "Параметры кампании", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateVotingInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Voting"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Обновить текущую кампанию",
                "parameters": [
                    {"description": "Изменяемые поля", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.VotingUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Voting"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["Auth"],
                "summary": "Вход администратора",
                "parameters": [
                    {"description": "Данные для входа", "name": "login", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Обновление токенов",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Выход",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Текущий администратор",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Admin"}}}
            }
        }
    },
    "definitions": {
        "handlers.ValidateRequest": {
            "type": "object",
            "required": ["phone_number"],
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "phone_number": {"type": "string"},
                "token": {"type": "string"}
            }
        },
        "handlers.VerifySMSRequest": {
            "type": "object",
            "required": ["phone", "code"],
            "properties": {
                "phone": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "handlers.UpdateUserRequest": {
            "type": "object",
            "required": ["id", "valid_vote"],
            "properties": {
                "id": {"type": "string"},
                "valid_vote": {"type": "boolean"}
            }
        },
        "services.CreateVotingInput": {
            "type": "object",
            "required": ["start_date", "end_date"],
            "properties": {
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "fake_quantity": {"type": "integer"},
                "show_real": {"type": "boolean"},
                "status": {"type": "string"}
            }
        },
        "models.VotingInfo": {
            "type": "object",
            "properties": {
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "quantity": {"type": "integer"},
                "status": {"type": "string"}
            }
        },
        "models.VotingUpdate": {
            "type": "object",
            "properties": {
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "fake_quantity": {"type": "integer"},
                "show_real": {"type": "boolean"},
                "status": {"type": "string"}
            }
        },
        "models.Voting": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "real_quantity": {"type": "integer"},
                "fake_quantity": {"type": "integer"},
                "show_real": {"type": "boolean"},
                "status": {"type": "string"},
                "is_current": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "phone_number": {"type": "string"},
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "valid_vote": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.Admin": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
	Title:            "Petition API",
	Description:      "Сбор подписей: SMS-подтверждение телефона и подсчёт голосов.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package docs

import "github.com/swaggo/swag"

// @title           Taskdesk API
// @version         1.0
// @description     Remote task store backing the console's task tracking module

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token

// @tag.name Tasks
// @tag.description Task lifecycle, status and linkage operations

// @tag.name Allocations
// @tag.description Resource allocation ledger per task

// @tag.name Comments
// @tag.description Append-only comment timeline

// @tag.name Resources
// @tag.description Assignable-people directory search

// @tag.name Flags
// @tag.description Static category-tag catalog

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Taskdesk API",
        "version": "1.0"
    },
    "basePath": "/"
}`

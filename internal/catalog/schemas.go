package catalog

import "iiot-site/internal/common/validation"

const slugPattern = `^[a-z0-9]+(-[a-z0-9]+)*$`

var productSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["slug", "name", "categorySlug"],
	"properties": {
		"slug":         {"type": "string", "pattern": "` + slugPattern + `", "maxLength": 150},
		"name":         {"type": "string", "minLength": 1, "maxLength": 200},
		"categorySlug": {"type": "string", "pattern": "` + slugPattern + `", "maxLength": 100},
		"summary":      {"type": "string"},
		"description":  {"type": "string"},
		"features":     {"type": "array", "items": {"type": "string"}},
		"images":       {"type": "array", "items": {"type": "string"}},
		"featured":     {"type": "boolean"},
		"status":       {"type": "string", "enum": ["draft", "published"]}
	}
}`)

var categorySchema = validation.MustCompile(`{
	"type": "object",
	"required": ["slug", "name"],
	"properties": {
		"slug":        {"type": "string", "pattern": "` + slugPattern + `", "maxLength": 100},
		"name":        {"type": "string", "minLength": 1, "maxLength": 200},
		"description": {"type": "string"},
		"sortOrder":   {"type": "integer"}
	}
}`)

var postSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["slug", "title"],
	"properties": {
		"slug":        {"type": "string", "pattern": "` + slugPattern + `", "maxLength": 150},
		"title":       {"type": "string", "minLength": 1, "maxLength": 300},
		"excerpt":     {"type": "string"},
		"content":     {"type": "string"},
		"author":      {"type": "string", "maxLength": 150},
		"tags":        {"type": "array", "items": {"type": "string"}},
		"status":      {"type": "string", "enum": ["draft", "published"]},
		"publishedAt": {"type": "string", "format": "date-time"}
	}
}`)

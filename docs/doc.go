// Package docs provides generated OpenAPI documentation.
//
// docextract sandbox API
//
//	@title			docextract sandbox API
//	@version		1.0
//	@description	Local stand-in for the document extraction service: validates uploads and answers with a result shaped by the submitted schema.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/docextract
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/docextract/serve.go -o ./swagger --parseDependency --parseInternal

package main

// General API documentation for swaggo. Run `swag init -g cmd/nnrunner/docs.go` to regenerate docs.
//
// @title           nnrunner API
// @version         1.0
// @description     Local HTTP API of the layer-wise inference device agent.
//
// @contact.name   nnrunner maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

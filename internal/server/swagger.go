package server

//go:generate swag init -g internal/server/swagger.go -o internal/server/docs --parseInternal

// @title Police Form API
// @version 1.0
// @description Submits tenant verification requests to the Rajasthan Police portal through a headless browser.
// @contact.name Policeform Maintainers
// @contact.url https://github.com/raysh454/policeform
// @BasePath /
